package pipeline

import (
	"sync"
	"time"

	"github.com/mredag/MPARB/internal/model/event"
)

// OutcomeEvent is one terminal pipeline result, published for live
// observation.
type OutcomeEvent struct {
	CorrelationID  string          `json:"correlation_id"`
	Platform       event.Platform  `json:"platform"`
	Outcome        event.Outcome   `json:"outcome"`
	Sentiment      event.Sentiment `json:"sentiment,omitempty"`
	ResponseTimeMS *int64          `json:"response_time_ms,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// Feed broadcasts terminal outcomes to any number of subscribers. Slow
// subscribers drop events instead of blocking the pipeline.
type Feed struct {
	mu   sync.Mutex
	subs map[chan OutcomeEvent]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[chan OutcomeEvent]struct{})}
}

// Subscribe registers a listener. The returned cancel function must be
// called when the listener goes away.
func (f *Feed) Subscribe() (<-chan OutcomeEvent, func()) {
	ch := make(chan OutcomeEvent, 16)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans the outcome out to every subscriber without blocking.
func (f *Feed) Publish(out OutcomeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- out:
		default:
		}
	}
}
