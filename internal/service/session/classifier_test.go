package session

import (
	"testing"
	"time"

	"github.com/mredag/MPARB/internal/model/event"
)

func TestMode(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	cases := []struct {
		name       string
		receivedAt time.Time
		want       event.SessionMode
	}{
		{"just received", now, event.ModeText},
		{"one hour old", now.Add(-time.Hour), event.ModeText},
		{"just inside window", now.Add(-window + time.Second), event.ModeText},
		{"exactly at boundary", now.Add(-window), event.ModeText},
		{"just outside window", now.Add(-window - time.Second), event.ModeTemplate},
		{"25 hours old", now.Add(-25 * time.Hour), event.ModeTemplate},
		{"48 hours old", now.Add(-48 * time.Hour), event.ModeTemplate},
		{"future timestamp from skewed clock", now.Add(time.Minute), event.ModeText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Mode(tc.receivedAt, now, window); got != tc.want {
				t.Errorf("Mode() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestModeZeroWindowFallsBackToDefault(t *testing.T) {
	now := time.Now().UTC()

	if got := Mode(now.Add(-23*time.Hour), now, 0); got != event.ModeText {
		t.Errorf("23h with default window = %q, want text", got)
	}
	if got := Mode(now.Add(-25*time.Hour), now, 0); got != event.ModeTemplate {
		t.Errorf("25h with default window = %q, want template", got)
	}
}
