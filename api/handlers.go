package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"memory-match-server/config"
	"memory-match-server/storage"
)

// SessionCounter reports how many game sessions are live.
type SessionCounter interface {
	Active() int
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config       *config.Config
	HistoryStore storage.HistoryStore
	Sessions     SessionCounter
}

// NewHandler creates a new API handler with the given dependencies.
// historyStore and sessions may be nil.
func NewHandler(cfg *config.Config, historyStore storage.HistoryStore, sessions SessionCounter) *Handler {
	return &Handler{
		Config:       cfg,
		HistoryStore: historyStore,
		Sessions:     sessions,
	}
}

// Routes registers the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(CORS)
		r.Get("/rounds", h.Rounds)
		r.Get("/stats", h.Stats)
	})
}

// CORS sets CORS headers and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health reports liveness and the number of live sessions.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	active := 0
	if h.Sessions != nil {
		active = h.Sessions.Active()
	}
	writeJSON(w, map[string]any{"ok": true, "sessions": active})
}

// Rounds returns the most recent round outcomes, newest first.
func (h *Handler) Rounds(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list := []storage.RoundRecord{}
	if h.HistoryStore != nil {
		var err error
		list, err = h.HistoryStore.ListRecent(r.Context(), limit)
		if err != nil {
			slog.Error("ListRecent failed", "tag", "api", "err", err)
			http.Error(w, "failed to load rounds", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, list)
}

// StatsResponse is the JSON structure for /api/stats.
type StatsResponse struct {
	Modes []storage.ModeStats `json:"modes"`
}

// Stats returns wins and losses aggregated per variant and mode.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Modes: []storage.ModeStats{}}
	if h.HistoryStore != nil {
		stats, err := h.HistoryStore.Stats(r.Context(), nil)
		if err != nil {
			slog.Error("Stats failed", "tag", "api", "err", err)
			http.Error(w, "failed to load stats", http.StatusInternalServerError)
			return
		}
		resp.Modes = stats
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "tag", "api", "err", err)
	}
}
