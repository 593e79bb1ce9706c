package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/mredag/MPARB/internal/config"
	"github.com/mredag/MPARB/internal/model/event"
)

var (
	// ErrAttemptsExhausted marks a terminal delivery failure after the
	// configured number of attempts.
	ErrAttemptsExhausted = errors.New("delivery attempts exhausted")
	// ErrPermanent marks a delivery rejection that retrying cannot fix.
	ErrPermanent = errors.New("delivery rejected")
)

// sendRequest is the wire payload for the sender collaborators. The
// destination keys on correlation_id, so repeated attempts for the
// same id are idempotent on the receiving side.
type sendRequest struct {
	CorrelationID string `json:"correlation_id"`
	DestinationID string `json:"destination_id"`
	ReplyText     string `json:"reply_text"`
}

// Executor performs the outbound call with bounded retries, a
// per-attempt timeout and exponential backoff between attempts. One
// Executor serves every concurrently processed event; rng is guarded
// because *rand.Rand is not safe for concurrent use.
type Executor struct {
	client      *http.Client
	maxAttempts int
	backoff     BackoffConfig
	mu          sync.Mutex
	rng         *rand.Rand
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewExecutor(cfg config.DispatchConfig) *Executor {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 3
	}

	attemptTimeout := cfg.PerAttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = 10 * time.Second
	}

	backoff := BackoffConfig{BaseDelay: cfg.BackoffBase, MaxDelay: cfg.BackoffCap}
	if backoff.BaseDelay <= 0 && backoff.MaxDelay <= 0 {
		backoff = DefaultBackoff()
	}

	return &Executor{
		client:      &http.Client{Timeout: attemptTimeout},
		maxAttempts: attempts,
		backoff:     backoff,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         func() time.Time { return time.Now().UTC() },
		sleep:       sleepCtx,
	}
}

// Deliver posts the reply to the destination. It returns the total
// elapsed time across all attempts; on terminal failure the error wraps
// ErrAttemptsExhausted, ErrPermanent, or the context error when the
// caller's deadline cut the retries short.
func (x *Executor) Deliver(ctx context.Context, dest Destination, ev event.Event) (int64, error) {
	payload := sendRequest{
		CorrelationID: ev.CorrelationID,
		DestinationID: ev.SenderID,
		ReplyText:     ev.ReplyText,
	}
	if ev.IsReview() {
		payload.DestinationID = ev.ReviewID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal send request: %w", err)
	}

	start := x.now()
	var lastErr error

	for attempt := 1; attempt <= x.maxAttempts; attempt++ {
		lastErr = x.attempt(ctx, dest, body)
		if lastErr == nil {
			return x.now().Sub(start).Milliseconds(), nil
		}
		if errors.Is(lastErr, ErrPermanent) {
			return x.now().Sub(start).Milliseconds(), lastErr
		}

		log.Printf("[dispatch] attempt %d/%d to %s failed: %v", attempt, x.maxAttempts, dest.Name, lastErr)

		if attempt == x.maxAttempts {
			break
		}
		if err := x.sleep(ctx, x.nextDelay(attempt)); err != nil {
			// Cancellation mid-backoff is not exhaustion: fewer
			// attempts ran and the caller's deadline is the cause.
			elapsed := x.now().Sub(start).Milliseconds()
			return elapsed, fmt.Errorf("delivery to %s canceled after %d attempts: %w", dest.Name, attempt, err)
		}
	}

	elapsed := x.now().Sub(start).Milliseconds()
	return elapsed, fmt.Errorf("%w after %d attempts to %s: %v", ErrAttemptsExhausted, x.maxAttempts, dest.Name, lastErr)
}

func (x *Executor) nextDelay(attempt int) time.Duration {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.backoff.Delay(attempt, x.rng)
}

func (x *Executor) attempt(ctx context.Context, dest Destination, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if dest.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+dest.AccessToken)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to %s: %w", dest.Name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode >= http.StatusInternalServerError:
		// Transient; the bounded retry policy handles it.
		return fmt.Errorf("%s returned status %d", dest.Name, resp.StatusCode)
	default:
		return fmt.Errorf("%w: %s returned status %d", ErrPermanent, dest.Name, resp.StatusCode)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
