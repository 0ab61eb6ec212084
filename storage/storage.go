package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS round_results (
	id            UUID PRIMARY KEY,
	ended_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	session_id    TEXT NOT NULL,
	round_id      TEXT NOT NULL,
	variant       TEXT NOT NULL,
	mode          TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	counter       INT NOT NULL,
	matched_pairs INT NOT NULL,
	total_pairs   INT NOT NULL,
	duration_ms   BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_round_results_ended_at ON round_results(ended_at DESC);
CREATE INDEX IF NOT EXISTS idx_round_results_variant_mode ON round_results(variant, mode);
`

// Store persists and retrieves round outcomes in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the round_results table exists.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence occurs.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// InsertRoundResult records one finished round. It is a no-op on a nil Store.
func (s *Store) InsertRoundResult(ctx context.Context, r RoundRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	endedAt := r.endedAt()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO round_results (id, ended_at, session_id, round_id, variant, mode, outcome, counter, matched_pairs, total_pairs, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, endedAt, r.SessionID, r.RoundID, r.Variant, r.Mode, r.Outcome, r.Counter, r.MatchedPairs, r.TotalPairs, r.DurationMS)
	return err
}

// ListRecent returns the most recent rounds, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]RoundRecord, error) {
	if s == nil || s.pool == nil {
		return []RoundRecord{}, nil
	}
	limit = clampLimit(limit)
	rows, err := s.pool.Query(ctx, `
		SELECT id, ended_at, session_id, round_id, variant, mode, outcome, counter, matched_pairs, total_pairs, duration_ms
		FROM round_results
		ORDER BY ended_at DESC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RoundRecord{}
	for rows.Next() {
		var r RoundRecord
		var endedAt time.Time
		if err := rows.Scan(&r.ID, &endedAt, &r.SessionID, &r.RoundID, &r.Variant, &r.Mode, &r.Outcome, &r.Counter, &r.MatchedPairs, &r.TotalPairs, &r.DurationMS); err != nil {
			return nil, err
		}
		r.EndedAt = endedAt.UTC().Format(time.RFC3339)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats aggregates outcomes per variant and mode. Winning counters are
// binned by cfg, or by the default bins when cfg is nil.
func (s *Store) Stats(ctx context.Context, cfg *HistogramConfig) ([]ModeStats, error) {
	if s == nil || s.pool == nil {
		return []ModeStats{}, nil
	}
	bins := histogramConfigOrDefault(cfg)

	rows, err := s.pool.Query(ctx, `
		SELECT variant, mode,
			COUNT(*),
			COUNT(*) FILTER (WHERE outcome = 'won'),
			COUNT(*) FILTER (WHERE outcome = 'time_up'),
			MIN(counter) FILTER (WHERE outcome = 'won'),
			COALESCE(AVG(duration_ms)::float8, 0)
		FROM round_results
		GROUP BY variant, mode
		ORDER BY variant, mode`)
	if err != nil {
		return nil, err
	}
	out := []ModeStats{}
	index := make(map[string]int)
	for rows.Next() {
		var m ModeStats
		if err := rows.Scan(&m.Variant, &m.Mode, &m.Played, &m.Won, &m.TimeUp, &m.BestCounter, &m.AvgDurationMS); err != nil {
			rows.Close()
			return nil, err
		}
		m.WinRatePct = winRate(m.Won, m.Played)
		m.CounterHistogram = newHistogram(bins)
		index[m.Variant+"/"+m.Mode] = len(out)
		out = append(out, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	histRows, err := s.pool.Query(ctx, `
		SELECT variant, mode, counter, COUNT(*)
		FROM round_results
		WHERE outcome = 'won'
		GROUP BY variant, mode, counter`)
	if err != nil {
		return nil, err
	}
	defer histRows.Close()
	for histRows.Next() {
		var variant, mode string
		var counter, cnt int
		if err := histRows.Scan(&variant, &mode, &counter, &cnt); err != nil {
			return nil, err
		}
		i, ok := index[variant+"/"+mode]
		if !ok {
			continue
		}
		out[i].CounterHistogram[binIndex(bins, counter)].Count += cnt
	}
	return out, histRows.Err()
}
