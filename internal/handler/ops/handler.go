package ops

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mredag/MPARB/internal/pipeline"
	"github.com/mredag/MPARB/pkg/utils"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the operational endpoints.
type Handler struct {
	store        Pinger
	feed         *pipeline.Feed
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// New creates the ops handler.
func New(store Pinger, feed *pipeline.Feed) *Handler {
	return &Handler{
		store:        store,
		feed:         feed,
		pingInterval: 54 * time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the health and feed routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/ws/feed", h.handleFeed)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.Printf("[ops] store ping failed: %v", err)
		utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  "unreachable",
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFeed streams pipeline outcome events over a websocket until the
// client disconnects.
func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ops] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ops] feed subscriber connected remote=%s", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := h.feed.Subscribe()
	defer unsubscribe()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Drain the client side so close frames are noticed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go h.pingLoop(ctx, cancel, conn)

	for {
		select {
		case <-ctx.Done():
			return
		case out, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(out); err != nil {
				log.Printf("[ops] feed write failed: %v", err)
				return
			}
		}
	}
}

// pingLoop keepalives the connection and unwinds the whole handler
// when a ping write fails, so a dead peer does not leave the feed
// writer waiting for the next outcome event.
func (h *Handler) pingLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				return
			}
		}
	}
}
