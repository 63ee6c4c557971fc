// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them; services read them without
// pulling in net/http.
package requestcontext

import (
	"context"
	"time"
)

type (
	organisationIDKey struct{}
	requestedByKey    struct{}
	requestIDKey      struct{}
	requestTimeKey    struct{}
)

// OrganisationID returns the authenticated organisation, or "" if unset.
func OrganisationID(ctx context.Context) string {
	if v, ok := ctx.Value(organisationIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithOrganisationID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, organisationIDKey{}, orgID)
}

// RequestedBy returns the actor recorded for audit purposes. The caller
// supplies it; the API layer only requires it to be non-empty.
func RequestedBy(ctx context.Context) string {
	if v, ok := ctx.Value(requestedByKey{}).(string); ok {
		return v
	}
	return ""
}

func WithRequestedBy(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, requestedByKey{}, actor)
}

// RequestID returns the per-request correlation ID, or "" if unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Now returns the request time if one was injected, else time.Now().
// Tests inject a fixed time with WithTime so derived timestamps are
// assertable.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return v
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
