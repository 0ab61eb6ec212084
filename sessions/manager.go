package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"memory-match-server/catalog"
	"memory-match-server/clock"
	"memory-match-server/confetti"
	"memory-match-server/config"
	"memory-match-server/game"
	"memory-match-server/sessionerrors"
	"memory-match-server/storage"
	"memory-match-server/ws"
)

const persistTimeout = 5 * time.Second

// Manager owns the live sessions. Each websocket connection gets its own
// session; a session whose connection drops is kept for ResumeWindowSec so
// the player can resume it after a reconnect or page refresh.
type Manager struct {
	config *config.Config
	store  storage.HistoryStore
	clock  clock.Clock

	// persist runs store writes off the session loop; tests replace it.
	persist func(func())

	mu       sync.Mutex
	entries  map[string]*entry
	byClient map[*ws.Client]*entry
}

type entry struct {
	session *game.Session
	variant string
	sink    *liveSink
	client  *ws.Client
	expiry  clock.Timer
}

var _ ws.SessionManager = (*Manager)(nil)

// NewManager creates a Manager. store may be nil, in which case round
// outcomes are only logged. clk may be nil for the real clock.
func NewManager(cfg *config.Config, store storage.HistoryStore, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{
		config:   cfg,
		store:    store,
		clock:    clk,
		persist:  func(f func()) { go f() },
		entries:  make(map[string]*entry),
		byClient: make(map[*ws.Client]*entry),
	}
}

// Start deals a fresh session for c using the named card variant, or the
// configured default when variant is empty.
func (m *Manager) Start(c *ws.Client, variant string) (*game.Session, error) {
	if variant == "" {
		variant = m.config.Variant
	}
	cat, err := catalog.ByName(variant)
	if err != nil {
		return nil, err
	}

	r := ws.NewClientRenderer(c)
	sink := &liveSink{target: r}
	effect := confetti.New(m.config.Celebration, m.clock, sink)
	s := game.NewSession(uuid.NewString(), m.config, cat, r, effect, m.clock)
	s.OnRoundEnd = m.recordRound

	e := &entry{session: s, variant: cat.Name(), sink: sink, client: c}
	m.mu.Lock()
	prev := m.byClient[c]
	m.entries[s.ID] = e
	m.byClient[c] = e
	m.mu.Unlock()
	if prev != nil {
		m.stop(prev)
	}

	c.SetSession(s)
	r.SendSession(s.ID, e.variant)
	go s.Run()
	go m.reap(e)

	slog.Info("session started", "tag", "session", "session", s.ID, "variant", e.variant)
	return s, nil
}

const displacedMessage = "Session was resumed on another connection."

// Resume moves the session id onto c. The session c was playing before is
// stopped, and a connection still attached to id is released from it. The
// resumed session redraws its current round on c.
func (m *Manager) Resume(id string, c *ws.Client) (*game.Session, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("resume %s: %w", id, sessionerrors.ErrSessionNotFound)
	}
	if e.expiry != nil {
		e.expiry.Stop()
		e.expiry = nil
	}
	var displaced *ws.Client
	if e.client != nil && e.client != c {
		displaced = e.client
		delete(m.byClient, e.client)
	}
	prev := m.byClient[c]
	e.client = c
	m.byClient[c] = e
	m.mu.Unlock()

	if prev != nil && prev != e {
		m.stop(prev)
	}
	if displaced != nil {
		displaced.Release(e.session, displacedMessage)
		slog.Info("session taken over by another connection", "tag", "session", "session", id)
	}

	r := ws.NewClientRenderer(c)
	e.sink.set(r)
	c.SetSession(e.session)
	r.SendSession(id, e.variant)
	if !e.session.Post(game.Action{Type: game.ActionAttach, Renderer: r}) {
		return nil, fmt.Errorf("resume %s: %w", id, sessionerrors.ErrSessionClosed)
	}
	slog.Info("session resumed", "tag", "session", "session", id)
	return e.session, nil
}

// Detach unbinds c from its session and starts the resume window.
func (m *Manager) Detach(c *ws.Client) {
	m.mu.Lock()
	e, ok := m.byClient[c]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.byClient, c)
	e.client = nil
	window := time.Duration(m.config.ResumeWindowSec) * time.Second
	e.expiry = m.clock.AfterFunc(window, func() { m.expire(e) })
	m.mu.Unlock()

	e.sink.set(nil)
	e.session.Post(game.Action{Type: game.ActionAttach})
	slog.Info("session detached", "tag", "session", "session", e.session.ID, "resumeWindow", window)
}

// Active returns the number of live sessions, attached or waiting for a resume.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Shutdown stops every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	m.mu.Unlock()
	for _, e := range all {
		m.stop(e)
	}
}

func (m *Manager) expire(e *entry) {
	m.mu.Lock()
	detached := e.client == nil
	m.mu.Unlock()
	if !detached {
		return
	}
	slog.Info("resume window elapsed", "tag", "session", "session", e.session.ID)
	m.stop(e)
}

func (m *Manager) stop(e *entry) {
	e.session.Post(game.Action{Type: game.ActionStop})
}

// reap forgets a session once its loop has exited.
func (m *Manager) reap(e *entry) {
	<-e.session.Done
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, e.session.ID)
	if e.client != nil && m.byClient[e.client] == e {
		delete(m.byClient, e.client)
	}
	if e.expiry != nil {
		e.expiry.Stop()
	}
}

// recordRound runs on the session loop.
func (m *Manager) recordRound(res game.RoundResult) {
	slog.Info("round ended", "tag", "session", "session", res.SessionID, "round", res.RoundID,
		"outcome", string(res.Outcome), "mode", res.Mode.String(), "counter", res.Counter)
	if m.store == nil {
		return
	}
	rec := storage.RoundRecord{
		EndedAt:      res.EndedAt.UTC().Format(time.RFC3339),
		SessionID:    res.SessionID,
		RoundID:      res.RoundID,
		Variant:      res.Variant,
		Mode:         res.Mode.String(),
		Outcome:      string(res.Outcome),
		Counter:      res.Counter,
		MatchedPairs: res.MatchedPairs,
		TotalPairs:   res.TotalPairs,
		DurationMS:   res.Duration.Milliseconds(),
	}
	m.persist(func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.store.InsertRoundResult(ctx, rec); err != nil {
			slog.Warn("failed to store round result", "tag", "storage", "round", rec.RoundID, "err", err)
		}
	})
}

// liveSink forwards confetti frames to whichever client is attached.
type liveSink struct {
	mu     sync.Mutex
	target confetti.FrameSink
}

func (l *liveSink) set(t confetti.FrameSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.target = t
}

func (l *liveSink) ConfettiFrame(f confetti.Frame) {
	l.mu.Lock()
	t := l.target
	l.mu.Unlock()
	if t != nil {
		t.ConfettiFrame(f)
	}
}
