package audit

import (
	"context"
	"log/slog"

	"kyc/pkg/requestcontext"
)

// Request is the raw material for one audit entry, captured at the call site
// before the diff is computed.
type Request struct {
	CustomerID     string
	OrganisationID string
	CreatedBy      string
	Action         Action
	PreChange      any
	PostChange     any
}

// Publisher hands audit requests to the background worker without blocking
// the caller. A full inbox drops the entry with an error log rather than
// stalling the request path.
type Publisher struct {
	inbox  chan Entry
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Entry, buffer),
		logger: logger,
	}
}

// Inbox is consumed by the worker.
func (p *Publisher) Inbox() <-chan Entry { return p.inbox }

// Emit queues one audit entry. Best effort: invalid or undeliverable entries
// are logged and dropped, never surfaced to the caller.
func (p *Publisher) Emit(ctx context.Context, req Request) {
	if req.CustomerID == "" || req.OrganisationID == "" {
		p.logger.Error("audit entry dropped, customer and organisation are required",
			"action", req.Action)
		return
	}

	entry := NewEntry(req.CustomerID, req.OrganisationID, req.CreatedBy,
		req.Action, req.PreChange, req.PostChange, requestcontext.Now(ctx))

	select {
	case p.inbox <- entry:
	default:
		p.logger.Error("audit entry dropped, inbox full",
			"action", entry.Action,
			"customer_id", entry.CustomerID)
	}
}
