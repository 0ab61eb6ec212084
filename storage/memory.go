package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps round outcomes in process. It backs the history API
// when no database is configured and keeps at most capacity records.
type MemoryStore struct {
	mu       sync.Mutex
	records  []RoundRecord
	capacity int
}

// NewMemoryStore returns an empty MemoryStore holding up to capacity records
// (unbounded when capacity <= 0).
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity}
}

func (m *MemoryStore) InsertRoundResult(_ context.Context, r RoundRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.EndedAt = r.endedAt().UTC().Format(time.RFC3339)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	if m.capacity > 0 && len(m.records) > m.capacity {
		m.records = append([]RoundRecord(nil), m.records[len(m.records)-m.capacity:]...)
	}
	return nil
}

func (m *MemoryStore) ListRecent(_ context.Context, limit int) ([]RoundRecord, error) {
	limit = clampLimit(limit)
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RoundRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *MemoryStore) Stats(_ context.Context, cfg *HistogramConfig) ([]ModeStats, error) {
	bins := histogramConfigOrDefault(cfg)
	m.mu.Lock()
	defer m.mu.Unlock()

	byKey := make(map[string]*ModeStats)
	durations := make(map[string]int64)
	for _, r := range m.records {
		key := r.Variant + "/" + r.Mode
		st, ok := byKey[key]
		if !ok {
			st = &ModeStats{Variant: r.Variant, Mode: r.Mode, CounterHistogram: newHistogram(bins)}
			byKey[key] = st
		}
		st.Played++
		durations[key] += r.DurationMS
		switch r.Outcome {
		case "won":
			st.Won++
			if st.BestCounter == nil || r.Counter < *st.BestCounter {
				best := r.Counter
				st.BestCounter = &best
			}
			st.CounterHistogram[binIndex(bins, r.Counter)].Count++
		case "time_up":
			st.TimeUp++
		}
	}

	out := make([]ModeStats, 0, len(byKey))
	for key, st := range byKey {
		st.WinRatePct = winRate(st.Won, st.Played)
		st.AvgDurationMS = float64(durations[key]) / float64(st.Played)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Variant != out[j].Variant {
			return out[i].Variant < out[j].Variant
		}
		return out[i].Mode < out[j].Mode
	})
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() {}
