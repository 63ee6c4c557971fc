// Package organisation maintains the tenant directory: which organisations
// exist, the API key each one authenticates with, and the validations each
// one requires of its customers. The directory is fetched from the
// organisation manager and held as a read-only snapshot that background
// refreshes swap atomically.
package organisation

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kyc/internal/customer/models"
	"kyc/pkg/kycerrors"
)

// Organisation is one tenant as the directory sees it.
type Organisation struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	APIKeyHash string `json:"apiKey"`
	IsDeleted  bool   `json:"isDeleted"`
	// RequiredValidations lists the document types this organisation requires
	// of every customer; validator gating derives from it.
	RequiredValidations []models.DocumentType `json:"requiredValidations"`
}

// Fetcher retrieves the full organisation list from the upstream manager.
type Fetcher interface {
	FetchOrganisations(ctx context.Context) ([]Organisation, error)
}

// Directory is the process-local snapshot of the organisation list. Reads
// never block on refreshes, and a failed refresh keeps the last-known-good
// snapshot.
type Directory struct {
	fetcher  Fetcher
	logger   *slog.Logger
	snapshot atomic.Pointer[map[string]Organisation]
}

func NewDirectory(fetcher Fetcher, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Directory{fetcher: fetcher, logger: logger}
	empty := map[string]Organisation{}
	d.snapshot.Store(&empty)
	return d
}

// Refresh replaces the snapshot with a fresh fetch. On error the previous
// snapshot stays in place.
func (d *Directory) Refresh(ctx context.Context) error {
	orgs, err := d.fetcher.FetchOrganisations(ctx)
	if err != nil {
		return kycerrors.Wrap(err, kycerrors.CodeInternal, "could not refresh organisations")
	}
	byID := make(map[string]Organisation, len(orgs))
	for _, org := range orgs {
		byID[org.ID] = org
	}
	d.snapshot.Store(&byID)
	d.logger.Debug("organisation directory refreshed", "organisations", len(byID))
	return nil
}

// Run refreshes on the given interval until ctx is cancelled. Failures are
// logged and retried next tick.
func (d *Directory) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := d.Refresh(ctx); err != nil {
				d.logger.Error("organisation refresh failed, keeping previous snapshot",
					"error", err)
			}
		}
	}
}

func (d *Directory) lookup(organisationID string) (Organisation, bool) {
	org, ok := (*d.snapshot.Load())[organisationID]
	if !ok || org.IsDeleted {
		return Organisation{}, false
	}
	return org, true
}

// Authenticate checks an organisation's API key. An unknown organisation
// triggers one directory refresh before failing, so a tenant onboarded since
// the last tick can authenticate immediately.
func (d *Directory) Authenticate(ctx context.Context, organisationID, apiKey string) error {
	if d.compareKey(organisationID, apiKey) {
		return nil
	}
	if _, known := d.lookup(organisationID); !known {
		if err := d.Refresh(ctx); err != nil {
			d.logger.Error("organisation refresh during authentication failed", "error", err)
		}
		if d.compareKey(organisationID, apiKey) {
			return nil
		}
	}
	return kycerrors.New(kycerrors.CodeUnauthorized, "Unauthorized. Confirm your ID and APIKey are valid.")
}

func (d *Directory) compareKey(organisationID, apiKey string) bool {
	org, ok := d.lookup(organisationID)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(org.APIKeyHash), []byte(apiKey)) == nil
}

// RequiredValidations returns the document types the organisation requires.
func (d *Directory) RequiredValidations(organisationID string) ([]models.DocumentType, error) {
	org, ok := d.lookup(organisationID)
	if !ok {
		return nil, kycerrors.New(kycerrors.CodeNotFound, "organisation %s not found", organisationID)
	}
	return org.RequiredValidations, nil
}
