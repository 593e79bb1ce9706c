// Package event defines the normalized inbound event and its derived
// enumerations. One Event carries a direct message or a public review
// through the whole pipeline.
package event

import "time"

// Platform identifies the inbound channel.
type Platform string

const (
	PlatformInstagram     Platform = "instagram"
	PlatformWhatsApp      Platform = "whatsapp"
	PlatformGoogleReviews Platform = "google_reviews"
)

// Valid reports whether the platform is one of the supported channels.
func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformWhatsApp, PlatformGoogleReviews:
		return true
	}
	return false
}

// IsReviewChannel reports whether replies on this platform are public
// review responses rather than direct messages.
func (p Platform) IsReviewChannel() bool {
	return p == PlatformGoogleReviews
}

// SessionMode is the messaging-window classification for direct
// messages. Inside the window free text is allowed; outside it only
// pre-approved templates may be sent.
type SessionMode string

const (
	ModeText     SessionMode = "text"
	ModeTemplate SessionMode = "template"
)

// Sentiment is the polarity assigned to an event, either from the
// review rating table or from the generation collaborator.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

// ActionTier maps sentiment to the response policy.
type ActionTier string

const (
	TierAutoReply ActionTier = "auto_reply"
	TierLogOnly   ActionTier = "log_only"
	TierEscalate  ActionTier = "escalate"
)

// Outcome is the terminal disposition of one event.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	OutcomeEscalated Outcome = "escalated"
)

// Event is one inbound customer interaction. The intake fields are set
// at the entry point; the derived fields are filled exactly once as
// the pipeline stages run.
type Event struct {
	CorrelationID string
	Platform      Platform
	SenderID      string
	Text          string
	ReceivedAt    time.Time

	// Review-only intake fields.
	ReviewID string
	Rating   int
	Author   string

	// Derived fields, write-once.
	SessionMode SessionMode
	Sentiment   Sentiment
	Intent      string
	Language    string
	ReplyText   string

	Outcome        Outcome
	ResponseTimeMS *int64
}

// IsReview reports whether the event came from a review channel.
func (e Event) IsReview() bool {
	return e.Platform.IsReviewChannel()
}

// ErrorRecord is one persisted pipeline failure, keyed by the failing
// event's correlation id.
type ErrorRecord struct {
	CorrelationID string
	Workflow      string
	Node          string
	Message       string
	Payload       string
	OccurredAt    time.Time
}
