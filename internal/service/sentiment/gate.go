// Package sentiment maps rating and sentiment signals to an action tier.
package sentiment

import (
	"fmt"

	"github.com/mredag/MPARB/internal/model/event"
)

// FromRating maps a 1-5 star rating to a sentiment label using the
// fixed deployment table: 4-5 Positive, 3 Neutral, 1-2 Negative.
func FromRating(rating int) (event.Sentiment, error) {
	switch rating {
	case 4, 5:
		return event.SentimentPositive, nil
	case 3:
		return event.SentimentNeutral, nil
	case 1, 2:
		return event.SentimentNegative, nil
	}
	return "", fmt.Errorf("rating %d outside 1-5", rating)
}

// Tier derives the response policy from a sentiment label. An
// unrecognized label escalates so a human always sees it.
func Tier(s event.Sentiment) event.ActionTier {
	switch s {
	case event.SentimentPositive:
		return event.TierAutoReply
	case event.SentimentNeutral:
		return event.TierLogOnly
	case event.SentimentNegative:
		return event.TierEscalate
	}
	return event.TierEscalate
}
