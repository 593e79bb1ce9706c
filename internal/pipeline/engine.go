// Package pipeline orchestrates the policy and dispatch stages for one
// inbound event: correlate, classify, gate, select, route, deliver,
// audit. Any stage failure diverts to the error sink with the event's
// correlation id.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mredag/MPARB/internal/alert"
	"github.com/mredag/MPARB/internal/model/event"
	"github.com/mredag/MPARB/internal/service/audit"
	"github.com/mredag/MPARB/internal/service/correlate"
	"github.com/mredag/MPARB/internal/service/dispatch"
	"github.com/mredag/MPARB/internal/service/errsink"
	"github.com/mredag/MPARB/internal/service/reply"
	"github.com/mredag/MPARB/internal/service/sentiment"
	"github.com/mredag/MPARB/internal/service/session"
)

const processorWorkflow = "processor"

// Deps carries everything the engine needs. Window and Timeout fall
// back to safe defaults when zero.
type Deps struct {
	Window   time.Duration
	Timeout  time.Duration
	Selector *reply.Selector
	Router   *dispatch.Router
	Executor *dispatch.Executor
	Audit    *audit.Logger
	Sink     *errsink.Sink
	Notifier alert.Notifier
	Feed     *Feed
	Now      func() time.Time
}

// Engine processes each inbound event as an independent unit of work.
type Engine struct {
	deps Deps
}

func NewEngine(deps Deps) *Engine {
	if deps.Window <= 0 {
		deps.Window = session.DefaultWindow
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Minute
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Notifier == nil {
		deps.Notifier = alert.NopNotifier{}
	}
	return &Engine{deps: deps}
}

// Process runs the full pipeline for one event and returns its final
// state. It never returns an error: every failure is captured by the
// error sink and reflected in the audit record.
func (e *Engine) Process(ctx context.Context, ev event.Event) event.Event {
	ctx, cancel := context.WithTimeout(ctx, e.deps.Timeout)
	defer cancel()

	ev = correlate.EnsureID(ev)
	start := e.deps.Now()

	// Session classification and the rating gate are pure and
	// independent; run them side by side before selection.
	var (
		wg       sync.WaitGroup
		mode     event.SessionMode
		rated    event.Sentiment
		gateErr  error
		isReview = ev.IsReview()
	)
	if !isReview {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mode = session.Mode(ev.ReceivedAt, start, e.deps.Window)
		}()
	}
	if isReview {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rated, gateErr = sentiment.FromRating(ev.Rating)
		}()
	}
	wg.Wait()

	if gateErr != nil {
		e.deps.Sink.Capture(ctx, errsink.Failure{
			CorrelationID: ev.CorrelationID,
			Workflow:      processorWorkflow,
			Node:          "sentiment_gate",
			Err:           gateErr,
			Payload:       ev,
		})
		return e.finalize(ctx, ev, event.OutcomeFailed, elapsedSince(start, e.deps.Now()))
	}

	if isReview {
		ev.Sentiment = rated
	} else {
		ev.SessionMode = mode
	}

	ev, strategy, err := e.deps.Selector.Respond(ctx, ev)
	if err != nil {
		// Collaborator failure: no partial reply is persisted and the
		// outcome stays unset.
		ev.ReplyText = ""
		e.deps.Sink.Capture(ctx, errsink.Failure{
			CorrelationID: ev.CorrelationID,
			Workflow:      processorWorkflow,
			Node:          "generate",
			Err:           err,
			Payload:       ev.Text,
		})
		return e.finalize(ctx, ev, "", nil)
	}

	if strategy.Alert {
		e.notifyEscalation(ctx, ev)
	}

	if strategy.Send {
		return e.deliver(ctx, ev, start)
	}

	outcome := event.OutcomeSkipped
	if strategy.Kind == reply.StrategyEscalate {
		outcome = event.OutcomeEscalated
	}
	return e.finalize(ctx, ev, outcome, elapsedSince(start, e.deps.Now()))
}

func (e *Engine) deliver(ctx context.Context, ev event.Event, start time.Time) event.Event {
	dest, err := e.deps.Router.Route(ev.Platform)
	if err != nil {
		// Unrecognized platform is a programmer error: surfaced once,
		// never retried.
		e.deps.Sink.Capture(ctx, errsink.Failure{
			CorrelationID: ev.CorrelationID,
			Workflow:      processorWorkflow,
			Node:          "route",
			Err:           err,
			Payload:       ev,
		})
		return e.finalize(ctx, ev, event.OutcomeFailed, elapsedSince(start, e.deps.Now()))
	}

	elapsed, err := e.deps.Executor.Deliver(ctx, dest, ev)
	if err != nil {
		e.deps.Sink.Capture(ctx, errsink.Failure{
			CorrelationID: ev.CorrelationID,
			Workflow:      dest.Name,
			Node:          "deliver",
			Err:           err,
			Payload:       ev,
		})
		return e.finalize(ctx, ev, event.OutcomeFailed, &elapsed)
	}

	return e.finalize(ctx, ev, event.OutcomeSent, &elapsed)
}

// finalize writes the audit record and publishes the outcome. Audit
// failures degrade to a sink entry; the event's disposition stands.
func (e *Engine) finalize(ctx context.Context, ev event.Event, outcome event.Outcome, elapsedMS *int64) event.Event {
	ev, err := e.deps.Audit.Complete(ctx, ev, outcome, elapsedMS)
	if err != nil {
		e.deps.Sink.Capture(ctx, errsink.Failure{
			CorrelationID: ev.CorrelationID,
			Workflow:      "audit",
			Node:          "persist",
			Err:           err,
			Payload:       ev,
		})
	}

	if e.deps.Feed != nil {
		e.deps.Feed.Publish(OutcomeEvent{
			CorrelationID:  ev.CorrelationID,
			Platform:       ev.Platform,
			Outcome:        ev.Outcome,
			Sentiment:      ev.Sentiment,
			ResponseTimeMS: ev.ResponseTimeMS,
			OccurredAt:     e.deps.Now(),
		})
	}

	log.Printf("[pipeline] correlation_id=%s platform=%s outcome=%s", ev.CorrelationID, ev.Platform, ev.Outcome)
	return ev
}

func (e *Engine) notifyEscalation(ctx context.Context, ev event.Event) {
	summary := fmt.Sprintf("%s escalation (sentiment=%s)", ev.Platform, ev.Sentiment)
	if ev.IsReview() {
		summary = fmt.Sprintf("%s escalation (rating=%d/5)", ev.Platform, ev.Rating)
	}
	if ev.ReplyText != "" {
		summary += "\ndraft: " + ev.ReplyText
	}

	err := e.deps.Notifier.Notify(ctx, alert.Alert{
		CorrelationID: ev.CorrelationID,
		Severity:      alert.SeverityWarning,
		Summary:       summary,
	})
	if err != nil {
		log.Printf("[pipeline] escalation alert failed for %s: %v", ev.CorrelationID, err)
	}
}

func elapsedSince(start, now time.Time) *int64 {
	ms := now.Sub(start).Milliseconds()
	return &ms
}
