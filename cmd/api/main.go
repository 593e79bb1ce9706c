package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mredag/MPARB/internal/alert"
	"github.com/mredag/MPARB/internal/config"
	"github.com/mredag/MPARB/internal/db"
	"github.com/mredag/MPARB/internal/handler"
	"github.com/mredag/MPARB/internal/pipeline"
	"github.com/mredag/MPARB/internal/service/audit"
	"github.com/mredag/MPARB/internal/service/dispatch"
	"github.com/mredag/MPARB/internal/service/errsink"
	"github.com/mredag/MPARB/internal/service/reply"
	"github.com/mredag/MPARB/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	gormDB, err := db.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	st := store.New(gormDB)
	if err := st.AutoMigrate(); err != nil {
		log.Fatalf("failed to migrate store: %v", err)
	}
	log.Printf("store ready driver=%s", cfg.Store.Driver)

	var notifier alert.Notifier = alert.NopNotifier{}
	if cfg.Alert.Enabled() {
		notifier = alert.NewSlack(cfg.Alert.SlackWebhookURL)
		log.Println("Slack alerting enabled")
	} else {
		log.Println("Slack webhook not configured, alerts will be dropped")
	}

	// Initialize the reply generator
	var generator reply.Generator = reply.Unavailable{}
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing without reply generation, check the Ark environment variables")
		} else {
			generator, err = reply.NewLLMGenerator(ctx, chatModel, cfg.AI.Timeout)
			if err != nil {
				log.Printf("warning: failed to build reply chain: %v", err)
				generator = reply.Unavailable{}
			} else {
				log.Println("reply generator initialized successfully")
			}
		}
	} else {
		log.Println("Ark credentials not configured, skipping reply generation")
	}

	feed := pipeline.NewFeed()
	engine := pipeline.NewEngine(pipeline.Deps{
		Window:   cfg.Channels.SessionWindow,
		Timeout:  cfg.Dispatch.PipelineTimeout,
		Selector: reply.NewSelector(generator, reply.NewTemplateStore(reply.Seed())),
		Router:   dispatch.NewRouter(cfg.Channels),
		Executor: dispatch.NewExecutor(cfg.Dispatch),
		Audit:    audit.New(st),
		Sink:     errsink.New(st, notifier),
		Notifier: notifier,
		Feed:     feed,
	})

	router := handler.NewRouter(engine, st, feed, cfg.Channels)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("MPARB dispatch engine listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
