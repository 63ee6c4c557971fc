package audit

import (
	"context"
	"log/slog"
)

// Sink receives a copy of every persisted entry, e.g. a message broker for
// downstream compliance consumers.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

// Worker drains the publisher inbox into the store and optional sink. Both
// writes are log-and-continue: a failing backend must not wedge the channel
// and back-pressure the request path.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(store Store, sink Sink, inbox <-chan Entry, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

// Run consumes entries until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			w.process(ctx, entry)
		}
	}
}

func (w *Worker) process(ctx context.Context, entry Entry) {
	if err := w.store.Append(ctx, entry); err != nil {
		w.logger.Error("audit entry not persisted",
			"entry_id", entry.ID,
			"action", entry.Action,
			"error", err)
	}
	if w.sink == nil {
		return
	}
	if err := w.sink.Publish(ctx, entry); err != nil {
		w.logger.Error("audit entry not published",
			"entry_id", entry.ID,
			"action", entry.Action,
			"error", err)
	}
}
