package audit

import (
	"context"
	"testing"

	"github.com/mredag/MPARB/internal/model/event"
)

type recordingStore struct {
	messages []event.Event
	reviews  []event.Event
}

func (s *recordingStore) UpsertMessage(_ context.Context, ev event.Event) error {
	s.messages = append(s.messages, ev)
	return nil
}

func (s *recordingStore) UpsertReview(_ context.Context, ev event.Event) error {
	s.reviews = append(s.reviews, ev)
	return nil
}

func TestCompleteSetsOutcomeOnce(t *testing.T) {
	store := &recordingStore{}
	l := New(store)

	elapsed := int64(120)
	ev := event.Event{CorrelationID: "c1", Platform: event.PlatformWhatsApp}

	ev, err := l.Complete(context.Background(), ev, event.OutcomeSent, &elapsed)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ev.Outcome != event.OutcomeSent || ev.ResponseTimeMS == nil {
		t.Fatalf("event not finalized: %+v", ev)
	}

	// A second completion must not overwrite the terminal fields.
	other := int64(999)
	ev, err = l.Complete(context.Background(), ev, event.OutcomeFailed, &other)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ev.Outcome != event.OutcomeSent {
		t.Errorf("outcome overwritten to %q", ev.Outcome)
	}
	if *ev.ResponseTimeMS != 120 {
		t.Errorf("response time overwritten to %d", *ev.ResponseTimeMS)
	}
	if len(store.messages) != 2 {
		t.Errorf("expected 2 upserts, got %d", len(store.messages))
	}
}

func TestCompleteRoutesReviewsToReviewTable(t *testing.T) {
	store := &recordingStore{}
	l := New(store)

	ev := event.Event{CorrelationID: "c2", Platform: event.PlatformGoogleReviews, Rating: 3}
	if _, err := l.Complete(context.Background(), ev, event.OutcomeSkipped, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(store.reviews) != 1 || len(store.messages) != 0 {
		t.Fatalf("review routed to wrong table: %+v", store)
	}
}

func TestCompleteAllowsUnsetOutcome(t *testing.T) {
	store := &recordingStore{}
	l := New(store)

	ev := event.Event{CorrelationID: "c3", Platform: event.PlatformInstagram}
	ev, err := l.Complete(context.Background(), ev, "", nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ev.Outcome != "" {
		t.Errorf("outcome = %q, want unset", ev.Outcome)
	}
}
