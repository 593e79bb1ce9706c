package reply

import (
	"errors"
	"testing"

	"github.com/mredag/MPARB/internal/model/event"
)

func TestParseGenerationOutput(t *testing.T) {
	content := `{"sentiment": "Positive", "intent": "Appointment", "reply_text": "Merhaba! Size uygun saatleri iletiyorum.", "language": "TR"}`

	got, err := parseGenerationOutput(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Sentiment != event.SentimentPositive {
		t.Errorf("sentiment = %q", got.Sentiment)
	}
	if got.Intent != "appointment" {
		t.Errorf("intent not normalized: %q", got.Intent)
	}
	if got.Language != "tr" {
		t.Errorf("language not normalized: %q", got.Language)
	}
}

func TestParseGenerationOutputToleratesSurroundingProse(t *testing.T) {
	content := "Here is the answer:\n```json\n" +
		`{"sentiment": "negative", "intent": "complaint", "reply_text": "Özür dileriz.", "language": "tr"}` +
		"\n```\nLet me know if you need more."

	got, err := parseGenerationOutput(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Sentiment != event.SentimentNegative {
		t.Errorf("sentiment = %q", got.Sentiment)
	}
}

func TestParseGenerationOutputDefaultsLanguage(t *testing.T) {
	content := `{"sentiment": "neutral", "reply_text": "Tamam."}`

	got, err := parseGenerationOutput(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Language != "tr" {
		t.Errorf("language = %q, want tr default", got.Language)
	}
}

func TestParseGenerationOutputMalformed(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"no json", "I cannot help with that."},
		{"broken json", `{"sentiment": "Positive", "reply_text": `},
		{"unknown sentiment", `{"sentiment": "Angry", "reply_text": "x"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseGenerationOutput(tc.content); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected malformed error, got %v", err)
			}
		})
	}
}
