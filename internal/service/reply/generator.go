package reply

import (
	"context"
	"errors"

	"github.com/mredag/MPARB/internal/model/event"
)

var (
	// ErrUnreachable marks a generation attempt that never produced a
	// usable model response (timeout, transport failure, no model).
	ErrUnreachable = errors.New("response generator unreachable")
	// ErrMalformed marks generator output that violates the reply
	// contract and must not be sent.
	ErrMalformed = errors.New("malformed generator output")
)

// GenerationMode tells the generator what kind of text is needed.
type GenerationMode string

const (
	// GenFreeText is an unrestricted direct-message reply inside the
	// session window.
	GenFreeText GenerationMode = "free_text"
	// GenReviewReply is a professional public review response without
	// decorative symbols.
	GenReviewReply GenerationMode = "review_reply"
	// GenDraft is an internal draft for human review during escalation.
	GenDraft GenerationMode = "draft"
)

// Request is the input to the response-generation collaborator.
type Request struct {
	Text     string
	Locale   string
	Platform event.Platform
	Mode     GenerationMode
	Context  []string
}

// Result is the collaborator's structured output.
type Result struct {
	Sentiment event.Sentiment
	Intent    string
	ReplyText string
	Language  string
}

// Generator is the response-generation collaborator. Implementations
// must bound the call with their own timeout.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Unavailable is the Generator used when no model credentials are
// configured; every call fails as unreachable so events divert to the
// error sink instead of being silently skipped.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, Request) (Result, error) {
	return Result{}, ErrUnreachable
}
