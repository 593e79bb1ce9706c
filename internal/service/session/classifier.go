// Package session decides the response mode for direct-message channels
// based on the platform's time-boxed messaging window.
package session

import (
	"time"

	"github.com/mredag/MPARB/internal/model/event"
)

// DefaultWindow matches Meta's 24-hour messaging policy for the
// direct-message channels in the intended deployment.
const DefaultWindow = 24 * time.Hour

// Mode returns ModeText while the messaging window is still open and
// ModeTemplate once it has closed. The window counts as open at the
// exact boundary instant: elapsed == window resolves to ModeText.
// Review channels have no session window and must not be classified.
func Mode(receivedAt, now time.Time, window time.Duration) event.SessionMode {
	if window <= 0 {
		window = DefaultWindow
	}

	elapsed := now.Sub(receivedAt)
	if elapsed < 0 {
		// Clock skew between the source platform and this host.
		elapsed = 0
	}

	if elapsed <= window {
		return event.ModeText
	}
	return event.ModeTemplate
}
