// Package store persists customer records. Records are tenant-scoped: every
// read and write carries the owning organisation ID, and a record belonging
// to another organisation is indistinguishable from an absent one.
package store

import (
	"context"

	"kyc/internal/customer/models"
	"kyc/pkg/kycerrors"
)

// ErrNotFound covers absent records, wrong-tenant reads, and tombstoned
// records alike.
var ErrNotFound = kycerrors.New(kycerrors.CodeNotFound, "customer not found")

// Store provides read-modify-write persistence per customer. Concurrent
// writes to the same customer are last-write-wins; callers needing ordering
// serialise above this layer.
type Store interface {
	Get(ctx context.Context, customerID, organisationID string) (*models.Customer, error)
	Put(ctx context.Context, customer *models.Customer) error
	// Delete tombstones the record; it stays queryable for audit backfill but
	// disappears from Get and ListByOrganisation.
	Delete(ctx context.Context, customerID, organisationID string) error
	ListByOrganisation(ctx context.Context, organisationID string) ([]*models.Customer, error)
}
