// Package document manages customer document binaries: uploads into the
// shared blob store under deterministic per-customer keys, short-lived signed
// preview links, and cleanup when a customer is removed.
package document

import (
	"context"
	"time"
)

// BlobStore is the binary storage capability behind document handling.
// Keys are opaque to the store; callers derive them from the customer and
// document type so re-uploads overwrite in place.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	DeleteMany(ctx context.Context, keys []string) error
	// SignedReadURL returns a pre-signed, read-only URL valid for ttl.
	SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
