package errsink

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mredag/MPARB/internal/alert"
	"github.com/mredag/MPARB/internal/model/event"
	"github.com/mredag/MPARB/internal/service/dispatch"
	"github.com/mredag/MPARB/internal/service/reply"
)

type fakeErrorStore struct {
	records []event.ErrorRecord
	err     error
}

func (s *fakeErrorStore) InsertError(_ context.Context, rec event.ErrorRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

type fakeNotifier struct {
	alerts []alert.Alert
}

func (n *fakeNotifier) Notify(_ context.Context, a alert.Alert) error {
	n.alerts = append(n.alerts, a)
	return nil
}

func TestCaptureStoresOneRecord(t *testing.T) {
	store := &fakeErrorStore{}
	notifier := &fakeNotifier{}
	sink := New(store, notifier)

	sink.Capture(context.Background(), Failure{
		CorrelationID: "corr-1",
		Workflow:      "processor",
		Node:          "generate",
		Err:           errors.New("boom"),
		Payload:       map[string]string{"text": "merhaba"},
	})

	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	rec := store.records[0]
	if rec.CorrelationID != "corr-1" || rec.Workflow != "processor" || rec.Node != "generate" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Payload == "" {
		t.Error("payload not captured")
	}
	if rec.OccurredAt.IsZero() {
		t.Error("occurred_at not set")
	}
	if len(notifier.alerts) != 0 {
		t.Errorf("ordinary failure alerted: %+v", notifier.alerts)
	}
}

func TestCaptureAlertsOnDeliveryExhaustion(t *testing.T) {
	store := &fakeErrorStore{}
	notifier := &fakeNotifier{}
	sink := New(store, notifier)

	sink.Capture(context.Background(), Failure{
		CorrelationID: "corr-2",
		Workflow:      "sender-whatsapp",
		Node:          "deliver",
		Err:           fmt.Errorf("%w after 3 attempts", dispatch.ErrAttemptsExhausted),
	})

	if len(notifier.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(notifier.alerts))
	}
	if notifier.alerts[0].Severity != alert.SeverityCritical {
		t.Errorf("severity = %q", notifier.alerts[0].Severity)
	}
	if notifier.alerts[0].CorrelationID != "corr-2" {
		t.Errorf("alert correlation id = %q", notifier.alerts[0].CorrelationID)
	}
}

func TestCaptureAlertsOnUnreachableGenerator(t *testing.T) {
	store := &fakeErrorStore{}
	notifier := &fakeNotifier{}
	sink := New(store, notifier)

	sink.Capture(context.Background(), Failure{
		CorrelationID: "corr-3",
		Workflow:      "processor",
		Node:          "generate",
		Err:           fmt.Errorf("%w: dial timeout", reply.ErrUnreachable),
	})

	if len(notifier.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(notifier.alerts))
	}
}

func TestCaptureAcceptsMissingCorrelationID(t *testing.T) {
	store := &fakeErrorStore{}
	sink := New(store, &fakeNotifier{})

	sink.Capture(context.Background(), Failure{
		Workflow: "instagram_intake",
		Node:     "validate",
		Err:      errors.New("malformed payload"),
	})

	if len(store.records) != 1 {
		t.Fatalf("pre-issuance failure not stored")
	}
	if store.records[0].CorrelationID != "" {
		t.Errorf("unexpected correlation id %q", store.records[0].CorrelationID)
	}
}

func TestCaptureSurvivesStoreFailure(t *testing.T) {
	store := &fakeErrorStore{err: errors.New("db down")}
	notifier := &fakeNotifier{}
	sink := New(store, notifier)

	// Must not panic and must still alert for critical failures.
	sink.Capture(context.Background(), Failure{
		Workflow: "sender-gbp",
		Node:     "deliver",
		Err:      dispatch.ErrAttemptsExhausted,
	})

	if len(notifier.alerts) != 1 {
		t.Fatalf("alert lost when store failed")
	}
}
