package storage

import (
	"context"
	"time"
)

// HistoryStore abstracts persistence for round outcomes.
// Implementations can be swapped for testing or for running without a database.
type HistoryStore interface {
	// Read
	ListRecent(ctx context.Context, limit int) ([]RoundRecord, error)
	Stats(ctx context.Context, cfg *HistogramConfig) ([]ModeStats, error)

	// Write
	InsertRoundResult(ctx context.Context, r RoundRecord) error

	// Lifecycle
	Close()
}

// Ensure both stores implement HistoryStore at compile time.
var (
	_ HistoryStore = (*Store)(nil)
	_ HistoryStore = (*MemoryStore)(nil)
)

// RoundRecord is one finished round as returned by the history API.
type RoundRecord struct {
	ID           string `json:"id"`
	EndedAt      string `json:"ended_at"` // ISO8601
	SessionID    string `json:"session_id"`
	RoundID      string `json:"round_id"`
	Variant      string `json:"variant"`
	Mode         string `json:"mode"`    // "closed" or "open"
	Outcome      string `json:"outcome"` // "won" or "time_up"
	Counter      int    `json:"counter"` // flips in closed mode, attempts in open mode
	MatchedPairs int    `json:"matched_pairs"`
	TotalPairs   int    `json:"total_pairs"`
	DurationMS   int64  `json:"duration_ms"`
}

func (r RoundRecord) endedAt() time.Time {
	if t, err := time.Parse(time.RFC3339, r.EndedAt); err == nil {
		return t
	}
	return time.Now()
}

// ModeStats aggregates the rounds of one variant and mode.
type ModeStats struct {
	Variant       string  `json:"variant"`
	Mode          string  `json:"mode"`
	Played        int     `json:"played"`
	Won           int     `json:"won"`
	TimeUp        int     `json:"time_up"`
	WinRatePct    float64 `json:"win_rate_pct"`
	BestCounter   *int    `json:"best_counter"` // lowest winning counter; null without wins
	AvgDurationMS float64 `json:"avg_duration_ms"`

	CounterHistogram []HistogramBucket `json:"counter_histogram"` // winning counters only
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func winRate(won, played int) float64 {
	if played == 0 {
		return 0
	}
	return float64(won) * 100 / float64(played)
}
