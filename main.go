package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"memory-match-server/api"
	"memory-match-server/config"
	"memory-match-server/loghandler"
	"memory-match-server/sessions"
	"memory-match-server/storage"
	"memory-match-server/ws"
)

// memoryHistoryCapacity bounds the in-process history kept without a database.
const memoryHistoryCapacity = 1000

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, cfg.SlogLevel())))
	if envErr != nil {
		slog.Info("no .env file found; using environment variables", "tag", "config")
	}

	slog.Info("configuration", "tag", "config",
		"variant", cfg.Variant, "pairs", cfg.PairCount,
		"closedTimerSec", cfg.ClosedTimerSec, "openTimerSec", cfg.OpenTimerSec,
		"celebrationMS", cfg.Celebration.DurationMS, "port", cfg.HTTPPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history := openHistory(ctx, cfg)
	defer history.Close()

	mgr := sessions.NewManager(cfg, history, nil)
	defer mgr.Shutdown()

	hub := ws.NewHub(cfg, mgr)
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newRouter(cfg, hub, history, mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown", "tag", "http", "err", err)
		}
	}()

	slog.Info("memory match server listening", "tag", "http", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "tag", "http", "err", err)
		os.Exit(1)
	}
}

// newRouter serves the websocket endpoint and the history API.
func newRouter(cfg *config.Config, hub *ws.Hub, history storage.HistoryStore, mgr *sessions.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Get("/ws", hub.ServeWS)
	api.NewHandler(cfg, history, mgr).Routes(r)
	return r
}

// openHistory connects to Postgres when DATABASE_URL is set and falls back
// to an in-process history otherwise.
func openHistory(ctx context.Context, cfg *config.Config) storage.HistoryStore {
	if cfg.DatabaseURL == "" {
		slog.Info("DATABASE_URL not set; keeping round history in memory", "tag", "storage")
		return storage.NewMemoryStore(memoryHistoryCapacity)
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	store, err := storage.NewStore(connectCtx, cfg.DatabaseURL)
	if err != nil {
		slog.Warn("postgres unavailable; keeping round history in memory", "tag", "storage", "err", err)
		return storage.NewMemoryStore(memoryHistoryCapacity)
	}
	return store
}
