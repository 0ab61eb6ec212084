package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memory-match-server/config"
	"memory-match-server/storage"
)

type fixedCounter int

func (c fixedCounter) Active() int { return int(c) }

type failingStore struct{ storage.MemoryStore }

func (*failingStore) ListRecent(context.Context, int) ([]storage.RoundRecord, error) {
	return nil, errors.New("db down")
}

func (*failingStore) Stats(context.Context, *storage.HistogramConfig) ([]storage.ModeStats, error) {
	return nil, errors.New("db down")
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newRouter(NewHandler(config.Defaults(), nil, fixedCounter(3))), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(3), body["sessions"])
}

func TestRounds(t *testing.T) {
	store := storage.NewMemoryStore(0)
	ctx := context.Background()
	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, store.InsertRoundResult(ctx, storage.RoundRecord{RoundID: id, Variant: "image", Mode: "closed", Outcome: "won", Counter: 16}))
	}

	rec := get(t, newRouter(NewHandler(config.Defaults(), store, nil)), "/api/rounds?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var list []storage.RoundRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "r3", list[0].RoundID)
}

func TestRounds_NoStore(t *testing.T) {
	rec := get(t, newRouter(NewHandler(config.Defaults(), nil, nil)), "/api/rounds")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRounds_StoreError(t *testing.T) {
	rec := get(t, newRouter(NewHandler(config.Defaults(), &failingStore{}, nil)), "/api/rounds")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStats(t *testing.T) {
	store := storage.NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, store.InsertRoundResult(ctx, storage.RoundRecord{Variant: "image", Mode: "open", Outcome: "won", Counter: 8}))
	require.NoError(t, store.InsertRoundResult(ctx, storage.RoundRecord{Variant: "image", Mode: "open", Outcome: "time_up", Counter: 11}))

	rec := get(t, newRouter(NewHandler(config.Defaults(), store, nil)), "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Modes, 1)
	assert.Equal(t, 2, resp.Modes[0].Played)
	assert.Equal(t, 1, resp.Modes[0].Won)
	assert.InDelta(t, 50.0, resp.Modes[0].WinRatePct, 0.001)
}

func TestStats_StoreError(t *testing.T) {
	rec := get(t, newRouter(NewHandler(config.Defaults(), &failingStore{}, nil)), "/api/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/rounds", nil)
	newRouter(NewHandler(config.Defaults(), nil, nil)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
