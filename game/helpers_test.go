package game

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"memory-match-server/catalog"
	"memory-match-server/clock"
	"memory-match-server/config"
)

// fakeRenderer records everything the session draws. With autoAck set it
// acknowledges frames as soon as they are requested.
type fakeRenderer struct {
	s       *Session
	views   []RoundView
	notices []string
	frames  []uint64
	autoAck bool
}

func (f *fakeRenderer) Render(v RoundView) { f.views = append(f.views, v) }
func (f *fakeRenderer) Notice(m string)    { f.notices = append(f.notices, m) }
func (f *fakeRenderer) RequestFrame(id uint64) {
	f.frames = append(f.frames, id)
	if f.autoAck {
		f.s.Post(Action{Type: ActionFrameAck, FrameID: id})
	}
}

func (f *fakeRenderer) last() RoundView { return f.views[len(f.views)-1] }

type fakeCelebration struct {
	plays     int
	durations []time.Duration
}

func (c *fakeCelebration) Play(ctx context.Context, d time.Duration) error {
	c.plays++
	c.durations = append(c.durations, d)
	return nil
}

type harness struct {
	t       *testing.T
	s       *Session
	r       *fakeRenderer
	c       *fakeCelebration
	clk     *clock.Manual
	results []RoundResult
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.DatabaseURL = ""
	return cfg
}

// newHarness creates a session driven synchronously: actions are dispatched
// by pump instead of a Run goroutine, and the celebration runs inline.
func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := clock.NewManual(time.Unix(1700000000, 0))
	r := &fakeRenderer{autoAck: true}
	c := &fakeCelebration{}
	s := NewSession("test-1", testConfig(), catalog.Images(), r, c, clk)
	r.s = s
	s.async = func(f func()) { f() }
	s.rng = rand.New(rand.NewSource(7))
	h := &harness{t: t, s: s, r: r, c: c, clk: clk}
	s.OnRoundEnd = func(res RoundResult) { h.results = append(h.results, res) }
	return h
}

// pump dispatches every queued action, including those queued while pumping.
func (h *harness) pump() {
	for {
		if a, ok := h.s.next(); ok {
			h.s.dispatch(a)
			continue
		}
		select {
		case a := <-h.s.Actions:
			h.s.dispatch(a)
		default:
			return
		}
	}
}

func (h *harness) click(idx int) {
	h.s.dispatch(Action{Type: ActionClick, Index: idx})
	h.pump()
}

func (h *harness) send(a Action) {
	h.s.dispatch(a)
	h.pump()
}

// advance moves the clock in 10ms steps so continuations scheduled by fired
// steps get their own deadlines inside the window.
func (h *harness) advance(d time.Duration) {
	const step = 10 * time.Millisecond
	for d > 0 {
		n := step
		if d < n {
			n = d
		}
		h.clk.Advance(n)
		h.pump()
		d -= n
	}
}

func (h *harness) round() *Round { return h.s.Round() }

// findPair finds two card indices that form a pair and are not matched.
func findPair(r *Round) (int, int) {
	byKey := make(map[string][]int)
	for _, card := range r.Board.Cards {
		if card.State != Matched {
			byKey[card.PairKey] = append(byKey[card.PairKey], card.Index)
		}
	}
	for _, idx := range byKey {
		if len(idx) == 2 {
			return idx[0], idx[1]
		}
	}
	return -1, -1
}

// findNonPair finds two unmatched card indices that do NOT form a pair.
func findNonPair(r *Round) (int, int) {
	cards := r.Board.Cards
	for i := range cards {
		for j := i + 1; j < len(cards); j++ {
			if cards[i].State != Matched && cards[j].State != Matched && cards[i].PairKey != cards[j].PairKey {
				return i, j
			}
		}
	}
	return -1, -1
}

// switchMode requests a switch and lets the settle transition finish.
func (h *harness) switchMode() {
	h.send(Action{Type: ActionSwitchMode})
	h.advance(time.Duration(h.s.Config.Animation.SwitchSettleMS+10) * time.Millisecond)
}

// solve matches every remaining pair in order.
func (h *harness) solve() {
	for {
		a, b := findPair(h.round())
		if a < 0 {
			return
		}
		h.click(a)
		h.click(b)
	}
}
