// Package errsink is the single capture point for pipeline failures.
package errsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mredag/MPARB/internal/alert"
	"github.com/mredag/MPARB/internal/model/event"
	"github.com/mredag/MPARB/internal/service/dispatch"
	"github.com/mredag/MPARB/internal/service/reply"
)

// ErrorStore persists captured failures.
type ErrorStore interface {
	InsertError(ctx context.Context, rec event.ErrorRecord) error
}

// Failure describes one failed stage. CorrelationID may be empty for
// failures that precede correlation issuance.
type Failure struct {
	CorrelationID string
	Workflow      string
	Node          string
	Err           error
	Payload       any
}

// Sink records every failure and forwards the high-severity classes
// (delivery exhaustion, unreachable response generator) to the
// alerting channel. Capture itself never fails the pipeline.
type Sink struct {
	store    ErrorStore
	notifier alert.Notifier
}

func New(store ErrorStore, notifier alert.Notifier) *Sink {
	return &Sink{store: store, notifier: notifier}
}

// Capture persists exactly one ErrorRecord for the failure and decides
// whether to alert.
func (s *Sink) Capture(ctx context.Context, f Failure) {
	message := "unknown failure"
	if f.Err != nil {
		message = f.Err.Error()
	}

	rec := event.ErrorRecord{
		CorrelationID: f.CorrelationID,
		Workflow:      f.Workflow,
		Node:          f.Node,
		Message:       message,
		Payload:       encodePayload(f.Payload),
		OccurredAt:    time.Now().UTC(),
	}

	log.Printf("[errsink] workflow=%s node=%s correlation_id=%s: %s", f.Workflow, f.Node, f.CorrelationID, message)

	if err := s.store.InsertError(ctx, rec); err != nil {
		// Last-resort visibility: the failure record itself could not
		// be stored, so the log line above is all that remains.
		log.Printf("[errsink] failed to persist error record: %v", err)
	}

	if severity(f.Err) != alert.SeverityCritical {
		return
	}

	a := alert.Alert{
		CorrelationID: f.CorrelationID,
		Severity:      alert.SeverityCritical,
		Summary:       fmt.Sprintf("%s/%s: %s", f.Workflow, f.Node, message),
	}
	if err := s.notifier.Notify(ctx, a); err != nil {
		log.Printf("[errsink] failed to deliver alert: %v", err)
	}
}

func severity(err error) alert.Severity {
	if errors.Is(err, dispatch.ErrAttemptsExhausted) || errors.Is(err, reply.ErrUnreachable) {
		return alert.SeverityCritical
	}
	return alert.SeverityWarning
}

func encodePayload(payload any) string {
	if payload == nil {
		return ""
	}
	if s, ok := payload.(string); ok {
		return s
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%+v", payload)
	}
	return string(b)
}
