package audit

import (
	"context"

	"kyc/pkg/kycerrors"
)

// ErrNotFound keeps storage-specific 404s consistent across store
// implementations.
var ErrNotFound = kycerrors.New(kycerrors.CodeNotFound, "audit entry not found")

// Store persists audit entries. Append-only; entries are never updated or
// removed.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByOrganisation(ctx context.Context, organisationID string) ([]Entry, error)
	Get(ctx context.Context, entryID, organisationID string) (Entry, error)
}
