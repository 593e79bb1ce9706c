package webhook

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mredag/MPARB/internal/config"
	"github.com/mredag/MPARB/internal/model/event"
	"github.com/mredag/MPARB/internal/service/correlate"
	"github.com/mredag/MPARB/pkg/utils"
)

// Processor runs the dispatch pipeline for one inbound event.
type Processor interface {
	Process(ctx context.Context, ev event.Event) event.Event
}

// Handler receives normalized channel events and hands them to the pipeline.
type Handler struct {
	engine   Processor
	channels config.ChannelConfig
	now      func() time.Time
}

// New creates the webhook handler.
func New(engine Processor, channels config.ChannelConfig) *Handler {
	return &Handler{
		engine:   engine,
		channels: channels,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers the verification and intake routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/webhook/{channel}", h.handleVerify)
	r.Post("/webhook/instagram", h.handleMessage(event.PlatformInstagram))
	r.Post("/webhook/whatsapp", h.handleMessage(event.PlatformWhatsApp))
	r.Post("/webhook/google-reviews", h.handleReview)
}

// handleVerify answers the Meta-style subscription handshake. The
// challenge is echoed back verbatim so the platform can confirm
// ownership of the endpoint.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" {
		utils.RespondError(w, http.StatusBadRequest, "unsupported hub.mode")
		return
	}

	expected := h.verifyToken(channel)
	if expected != "" && token != expected {
		log.Printf("[webhook] verification rejected channel=%s", channel)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("verification failed"))
		return
	}

	log.Printf("[webhook] verification accepted channel=%s", channel)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

func (h *Handler) verifyToken(channel string) string {
	switch channel {
	case "instagram":
		return h.channels.InstagramVerifyToken
	case "whatsapp":
		return h.channels.WhatsAppVerifyToken
	default:
		return ""
	}
}

type messagePayload struct {
	CorrelationID string `json:"correlation_id"`
	SenderID      string `json:"sender_id"`
	Text          string `json:"text"`
	ReceivedAt    string `json:"received_at"`
}

type reviewPayload struct {
	CorrelationID string `json:"correlation_id"`
	ReviewID      string `json:"review_id"`
	Rating        int    `json:"rating"`
	Author        string `json:"author"`
	Text          string `json:"text"`
	ReceivedAt    string `json:"received_at"`
}

type acceptedResponse struct {
	Status        string `json:"status"`
	CorrelationID string `json:"correlation_id"`
}

func (h *Handler) handleMessage(platform event.Platform) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload messagePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if strings.TrimSpace(payload.SenderID) == "" {
			utils.RespondError(w, http.StatusBadRequest, "sender_id is required")
			return
		}
		if strings.TrimSpace(payload.Text) == "" {
			utils.RespondError(w, http.StatusBadRequest, "text is required")
			return
		}

		receivedAt, err := h.parseReceivedAt(payload.ReceivedAt)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "received_at must be RFC3339")
			return
		}

		ev := event.Event{
			CorrelationID: payload.CorrelationID,
			Platform:      platform,
			SenderID:      payload.SenderID,
			Text:          payload.Text,
			ReceivedAt:    receivedAt,
		}
		h.accept(w, ev)
	}
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(payload.ReviewID) == "" {
		utils.RespondError(w, http.StatusBadRequest, "review_id is required")
		return
	}
	if payload.Rating < 1 || payload.Rating > 5 {
		utils.RespondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	receivedAt, err := h.parseReceivedAt(payload.ReceivedAt)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "received_at must be RFC3339")
		return
	}

	ev := event.Event{
		CorrelationID: payload.CorrelationID,
		Platform:      event.PlatformGoogleReviews,
		ReviewID:      payload.ReviewID,
		Rating:        payload.Rating,
		Author:        payload.Author,
		Text:          payload.Text,
		ReceivedAt:    receivedAt,
	}
	h.accept(w, ev)
}

// accept issues the correlation id, acknowledges the caller and runs the
// pipeline asynchronously. The request context is not reused so an early
// client disconnect cannot cancel delivery mid-flight.
func (h *Handler) accept(w http.ResponseWriter, ev event.Event) {
	ev = correlate.EnsureID(ev)

	go h.engine.Process(context.Background(), ev)

	utils.RespondJSON(w, http.StatusOK, acceptedResponse{
		Status:        "accepted",
		CorrelationID: ev.CorrelationID,
	})
}

func (h *Handler) parseReceivedAt(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return h.now(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
