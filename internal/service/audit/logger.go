// Package audit finalizes and persists the per-event audit record.
package audit

import (
	"context"

	"github.com/mredag/MPARB/internal/model/event"
)

// Store is the persistence surface the logger writes through. Upserts
// are idempotent by correlation id.
type Store interface {
	UpsertMessage(ctx context.Context, ev event.Event) error
	UpsertReview(ctx context.Context, ev event.Event) error
}

// Logger is the only writer of Outcome and ResponseTimeMS.
type Logger struct {
	store Store
}

func New(store Store) *Logger {
	return &Logger{store: store}
}

// Complete sets the terminal outcome and timing at most once and
// persists the record. An empty outcome is allowed for collaborator
// failures where the outcome is deliberately left unset. The returned
// event carries the finalized fields; a persistence error is returned
// for the caller to degrade into an error-sink entry, never to fail
// the user-facing response.
func (l *Logger) Complete(ctx context.Context, ev event.Event, outcome event.Outcome, elapsedMS *int64) (event.Event, error) {
	if ev.Outcome == "" {
		ev.Outcome = outcome
	}
	if ev.ResponseTimeMS == nil {
		ev.ResponseTimeMS = elapsedMS
	}

	var err error
	if ev.IsReview() {
		err = l.store.UpsertReview(ctx, ev)
	} else {
		err = l.store.UpsertMessage(ctx, ev)
	}
	return ev, err
}
