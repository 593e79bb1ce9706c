// Package dispatch routes outbound replies to the per-channel sender
// collaborators and performs the delivery with bounded retries.
package dispatch

import (
	"fmt"

	"github.com/mredag/MPARB/internal/config"
	"github.com/mredag/MPARB/internal/model/event"
)

// Destination describes one outbound sender collaborator.
type Destination struct {
	Name        string
	URL         string
	AccessToken string
}

// Router maps a platform to exactly one outbound destination. Pure
// lookup, no I/O; it fails only on an unrecognized platform, which is a
// programmer error and must be surfaced, not retried.
type Router struct {
	destinations map[event.Platform]Destination
}

func NewRouter(cfg config.ChannelConfig) *Router {
	return &Router{
		destinations: map[event.Platform]Destination{
			event.PlatformInstagram: {
				Name:        "sender-instagram",
				URL:         cfg.InstagramSenderURL,
				AccessToken: cfg.SenderAccessToken,
			},
			event.PlatformWhatsApp: {
				Name:        "sender-whatsapp",
				URL:         cfg.WhatsAppSenderURL,
				AccessToken: cfg.SenderAccessToken,
			},
			event.PlatformGoogleReviews: {
				Name:        "sender-gbp",
				URL:         cfg.ReviewsSenderURL,
				AccessToken: cfg.SenderAccessToken,
			},
		},
	}
}

// Route resolves the destination for a platform.
func (r *Router) Route(platform event.Platform) (Destination, error) {
	dest, ok := r.destinations[platform]
	if !ok {
		return Destination{}, fmt.Errorf("no sender destination for platform %q", platform)
	}
	return dest, nil
}
