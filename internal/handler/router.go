package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mredag/MPARB/internal/config"
	"github.com/mredag/MPARB/internal/handler/ops"
	"github.com/mredag/MPARB/internal/handler/webhook"
	middlewarePkg "github.com/mredag/MPARB/internal/middleware"
	"github.com/mredag/MPARB/internal/pipeline"
)

// NewRouter wires HTTP routes to the dispatch pipeline.
func NewRouter(engine *pipeline.Engine, store ops.Pinger, feed *pipeline.Feed, channels config.ChannelConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	webhookHandler := webhook.New(engine, channels)
	opsHandler := ops.New(store, feed)

	webhookHandler.RegisterRoutes(r)
	opsHandler.RegisterRoutes(r)

	return r
}
