package game

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"memory-match-server/catalog"
	"memory-match-server/clock"
	"memory-match-server/config"
)

// ActionType enumerates the kinds of actions a session can process.
type ActionType int

const (
	ActionClick ActionType = iota
	ActionSwitchMode
	ActionRestart
	ActionFrameAck // renderer committed the frame with FrameID
	ActionAttach   // swap the renderer (resume after reconnect, or nil to detach)
	ActionStop

	actionStep          // internal: continue a timeline
	actionTick          // internal: countdown second elapsed
	actionFrameDeadline // internal: a requested frame was never acknowledged
)

// Action represents an input sent into the session's action channel.
type Action struct {
	Type     ActionType
	Index    int      // card index (for Click)
	FrameID  uint64   // for FrameAck
	Renderer Renderer // for Attach

	timeline *Timeline
	tickGen  uint64
}

// Renderer draws rounds. It is the only way the session reaches the screen.
type Renderer interface {
	Painter
	Render(view RoundView)
	Notice(message string)
}

// Celebration plays the win effect. Play returns once the effect has been
// fully torn down, including any fade-out grace period.
type Celebration interface {
	Play(ctx context.Context, d time.Duration) error
}

// Outcome is how a round ended.
type Outcome string

const (
	OutcomeWon    Outcome = "won"
	OutcomeTimeUp Outcome = "time_up"
)

// RoundResult describes a finished round.
type RoundResult struct {
	SessionID    string
	RoundID      string
	Variant      string
	Mode         Mode
	Outcome      Outcome
	Counter      int
	MatchedPairs int
	TotalPairs   int
	Duration     time.Duration
	EndedAt      time.Time
}

// Session runs one player's game. All state mutation happens on the Run
// goroutine; everything else communicates through Actions.
type Session struct {
	ID          string
	Config      *config.Config
	Catalog     *catalog.Catalog
	Renderer    Renderer
	Celebration Celebration

	// OnRoundEnd is called on the loop goroutine when a round is won or lost.
	OnRoundEnd func(RoundResult)

	Actions chan Action
	Done    chan struct{}

	// pending holds actions the loop queued for itself.
	pending []Action

	clock     clock.Clock
	rng       *rand.Rand
	round     *Round
	seq       *Sequencer
	countdown *countdown
	startedAt time.Time

	// async runs the celebration off the loop; tests replace it.
	async func(func())

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession creates a Session with a freshly dealt closed-mode round.
func NewSession(id string, cfg *config.Config, cat *catalog.Catalog, r Renderer, c Celebration, clk clock.Clock) *Session {
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:          id,
		Config:      cfg,
		Catalog:     cat,
		Renderer:    r,
		Celebration: c,
		Actions:     make(chan Action, 64),
		Done:        make(chan struct{}),
		clock:       clk,
		rng:         rand.New(rand.NewSource(clk.Now().UnixNano())),
		async:       func(f func()) { go f() },
		ctx:         ctx,
		cancel:      cancel,
	}
	s.seq = NewSequencer(clk, s.Post, s.enqueue, r)
	s.seq.frameTimeout = ms(cfg.Animation.FrameTimeoutMS)
	s.countdown = &countdown{clock: clk, post: s.Post}
	s.round = s.newRound(ModeClosed)
	return s
}

// Post sends an action to the loop. It returns false once the session has
// stopped. It blocks while the channel is full, so the loop itself uses
// enqueue instead.
func (s *Session) Post(a Action) bool {
	select {
	case s.Actions <- a:
		return true
	case <-s.Done:
		return false
	}
}

// enqueue queues an action from the loop goroutine. Queued actions run
// before anything else is read from Actions.
func (s *Session) enqueue(a Action) {
	s.pending = append(s.pending, a)
}

// next pops the oldest queued action.
func (s *Session) next() (Action, bool) {
	if len(s.pending) == 0 {
		return Action{}, false
	}
	a := s.pending[0]
	s.pending = s.pending[1:]
	return a, true
}

// Round returns the current round. Only safe on the loop goroutine or after
// the loop has exited.
func (s *Session) Round() *Round {
	return s.round
}

// Run is the session loop. It processes actions sequentially and should be
// run as a goroutine.
func (s *Session) Run() {
	defer close(s.Done)
	defer s.shutdown()

	s.render()

	for {
		action, ok := s.next()
		if !ok {
			action, ok = <-s.Actions
			if !ok {
				return
			}
		}
		if !s.dispatch(action) {
			return
		}
	}
}

// dispatch handles one action and reports whether the loop should continue.
func (s *Session) dispatch(a Action) bool {
	switch a.Type {
	case ActionClick:
		s.handleClick(a.Index)
	case ActionSwitchMode:
		s.handleSwitchMode()
	case ActionRestart:
		s.handleRestart()
	case ActionFrameAck:
		if t := s.seq.frameCommitted(a.FrameID); t != nil {
			s.continueTimeline(t)
		}
	case ActionAttach:
		s.handleAttach(a.Renderer)
	case ActionStop:
		return false
	case actionStep:
		s.continueTimeline(s.seq.release(a.timeline))
	case actionTick:
		s.handleTick(a.tickGen)
	case actionFrameDeadline:
		if t := s.seq.frameMissed(a.FrameID); t != nil {
			s.continueTimeline(t)
		}
	}
	return true
}

func (s *Session) continueTimeline(t *Timeline) {
	if t.owner != s.round {
		slog.Debug("dropping step of superseded round", "tag", "session", "session", s.ID, "timeline", t.name)
		return
	}
	t.run()
}

func (s *Session) handleAttach(r Renderer) {
	s.Renderer = r
	s.seq.SetPainter(r)
	s.render()
}

func (s *Session) shutdown() {
	s.countdown.stop()
	s.seq.Stop()
	s.cancel()
}

// newRound deals a fresh round in mode with the mode's counter and countdown
// reset. The running countdown is stopped.
func (s *Session) newRound(mode Mode) *Round {
	s.countdown.stop()
	s.startedAt = time.Time{}
	board := NewBoard(s.Catalog, s.Config.PairCount, s.rng)
	return newRound(mode, board, s.timerFor(mode))
}

// install makes r the current round and rebinds t to it.
func (s *Session) install(t *Timeline, r *Round) {
	s.round = r
	if t != nil {
		t.Adopt(r)
	}
}

func (s *Session) timerFor(mode Mode) int {
	if mode == ModeOpen {
		return s.Config.OpenTimerSec
	}
	return s.Config.ClosedTimerSec
}

func (s *Session) render() {
	if s.Renderer == nil {
		return
	}
	s.Renderer.Render(BuildRoundView(s.round))
}

func (s *Session) notice(msg string) {
	if s.Renderer == nil {
		return
	}
	s.Renderer.Notice(msg)
}

func ms(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	return time.Duration(n) * time.Millisecond
}
