package reply

import (
	"context"
	"fmt"

	"github.com/mredag/MPARB/internal/model/event"
	"github.com/mredag/MPARB/internal/service/sentiment"
)

// StrategyKind names one of the defined response strategies.
type StrategyKind string

const (
	StrategyFreeText    StrategyKind = "free_text"
	StrategyTemplate    StrategyKind = "template"
	StrategyReviewReply StrategyKind = "review_reply"
	StrategyLogOnly     StrategyKind = "log_only"
	StrategyEscalate    StrategyKind = "escalate"
)

// Strategy is the selected response policy for one event.
type Strategy struct {
	Kind  StrategyKind
	Send  bool
	Alert bool
}

// Select maps (platform, session mode, action tier) to exactly one
// response strategy.
func Select(platform event.Platform, mode event.SessionMode, tier event.ActionTier) (Strategy, error) {
	if !platform.Valid() {
		return Strategy{}, fmt.Errorf("unrecognized platform %q", platform)
	}

	if tier == event.TierEscalate {
		return Strategy{Kind: StrategyEscalate, Alert: true}, nil
	}
	if tier == event.TierLogOnly {
		return Strategy{Kind: StrategyLogOnly}, nil
	}

	if platform.IsReviewChannel() {
		return Strategy{Kind: StrategyReviewReply, Send: true}, nil
	}
	if mode == event.ModeTemplate {
		return Strategy{Kind: StrategyTemplate, Send: true}, nil
	}
	return Strategy{Kind: StrategyFreeText, Send: true}, nil
}

// Selector combines the gate and classifier outputs with channel
// identity, requests generated text from the collaborator when the
// strategy requires it, and enforces the outbound text constraints.
type Selector struct {
	gen       Generator
	templates *TemplateStore
}

func NewSelector(gen Generator, templates *TemplateStore) *Selector {
	return &Selector{gen: gen, templates: templates}
}

// Respond selects the strategy for the event and fills the derived
// fields. For reviews the sentiment is already fixed by the rating
// gate; for messages the collaborator supplies sentiment and intent
// together with the reply text.
func (s *Selector) Respond(ctx context.Context, ev event.Event) (event.Event, Strategy, error) {
	if ev.IsReview() {
		return s.respondReview(ctx, ev)
	}
	return s.respondMessage(ctx, ev)
}

func (s *Selector) respondReview(ctx context.Context, ev event.Event) (event.Event, Strategy, error) {
	strategy, err := Select(ev.Platform, ev.SessionMode, sentiment.Tier(ev.Sentiment))
	if err != nil {
		return ev, Strategy{}, err
	}

	if ev.Language == "" {
		ev.Language = "tr"
	}

	switch strategy.Kind {
	case StrategyLogOnly:
		// Neutral review: no reply is generated.
		return ev, strategy, nil

	case StrategyReviewReply:
		res, err := s.gen.Generate(ctx, Request{
			Text:     ev.Text,
			Locale:   ev.Language,
			Platform: ev.Platform,
			Mode:     GenReviewReply,
			Context:  reviewContext(ev),
		})
		if err != nil {
			return ev, strategy, err
		}
		if err := ValidateOutbound(res.ReplyText, ev.Platform, res.Language); err != nil {
			return ev, strategy, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		ev.ReplyText = res.ReplyText
		ev.Language = res.Language
		return ev, strategy, nil

	default: // StrategyEscalate
		res, err := s.gen.Generate(ctx, Request{
			Text:     ev.Text,
			Locale:   ev.Language,
			Platform: ev.Platform,
			Mode:     GenDraft,
			Context:  reviewContext(ev),
		})
		if err != nil {
			return ev, strategy, err
		}
		if err := ValidateDraft(res.ReplyText); err != nil {
			return ev, strategy, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		ev.ReplyText = res.ReplyText
		ev.Language = res.Language
		return ev, strategy, nil
	}
}

func (s *Selector) respondMessage(ctx context.Context, ev event.Event) (event.Event, Strategy, error) {
	res, err := s.gen.Generate(ctx, Request{
		Text:     ev.Text,
		Locale:   "tr",
		Platform: ev.Platform,
		Mode:     GenFreeText,
	})
	if err != nil {
		return ev, Strategy{}, err
	}

	ev.Sentiment = res.Sentiment
	ev.Intent = res.Intent
	ev.Language = res.Language

	strategy, err := Select(ev.Platform, ev.SessionMode, sentiment.Tier(res.Sentiment))
	if err != nil {
		return ev, Strategy{}, err
	}

	switch strategy.Kind {
	case StrategyFreeText:
		if err := ValidateOutbound(res.ReplyText, ev.Platform, res.Language); err != nil {
			return ev, strategy, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		ev.ReplyText = res.ReplyText

	case StrategyTemplate:
		// Outside the session window only the approved set may be sent.
		ev.ReplyText = s.templates.ForIntent(res.Intent).Text

	case StrategyEscalate:
		if err := ValidateDraft(res.ReplyText); err != nil {
			return ev, strategy, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		ev.ReplyText = res.ReplyText

	case StrategyLogOnly:
		// Nothing to send, nothing to draft.
	}

	return ev, strategy, nil
}

func reviewContext(ev event.Event) []string {
	ctx := []string{fmt.Sprintf("rating: %d/5", ev.Rating)}
	if ev.Author != "" {
		ctx = append(ctx, "author: "+ev.Author)
	}
	return ctx
}
