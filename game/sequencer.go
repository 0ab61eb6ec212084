package game

import (
	"log/slog"
	"sync"
	"time"

	"memory-match-server/clock"
)

// Painter commits frames. RequestFrame asks the renderer to acknowledge id
// once everything rendered so far is on screen.
type Painter interface {
	RequestFrame(id uint64)
}

type stepKind int

const (
	stepDo stepKind = iota
	stepWait
	stepFrames
	stepAwait
)

type step struct {
	kind   stepKind
	delay  time.Duration
	frames int
	do     func()
	await  func(resume func())
}

// Timeline is an ordered list of animation steps bound to the Round that
// owns it. Each step runs to completion on the session loop before the next
// one is scheduled.
type Timeline struct {
	name  string
	seq   *Sequencer
	owner *Round
	steps []step
	pos   int

	framesLeft int
	done       bool
}

// Do appends a synchronous state transform.
func (t *Timeline) Do(fn func()) *Timeline {
	t.steps = append(t.steps, step{kind: stepDo, do: fn})
	return t
}

// Wait appends a timed deferral.
func (t *Timeline) Wait(d time.Duration) *Timeline {
	t.steps = append(t.steps, step{kind: stepWait, delay: d})
	return t
}

// Frames appends a deferral until n frames have been committed.
func (t *Timeline) Frames(n int) *Timeline {
	if n < 1 {
		n = 1
	}
	t.steps = append(t.steps, step{kind: stepFrames, frames: n})
	return t
}

// Await appends a step that suspends until fn calls resume. resume may be
// called from any goroutine; only the first call counts.
func (t *Timeline) Await(fn func(resume func())) *Timeline {
	t.steps = append(t.steps, step{kind: stepAwait, await: fn})
	return t
}

// Adopt rebinds the timeline to a Round that replaced its owner.
func (t *Timeline) Adopt(r *Round) {
	t.owner = r
}

// Start runs steps until the first deferral.
func (t *Timeline) Start() {
	t.seq.active = t
	t.run()
}

func (t *Timeline) run() {
	for t.pos < len(t.steps) {
		s := t.steps[t.pos]
		t.pos++
		switch s.kind {
		case stepDo:
			s.do()
		case stepWait:
			t.seq.after(t, s.delay)
			return
		case stepFrames:
			t.framesLeft = s.frames
			t.seq.requestFrame(t)
			return
		case stepAwait:
			var once sync.Once
			s.await(func() {
				once.Do(func() { t.seq.resume(t) })
			})
			return
		}
	}
	t.done = true
	if t.seq.active == t {
		t.seq.active = nil
	}
}

// Sequencer schedules timeline continuations. Continuations are posted back
// to the session loop as actions, never run on timer goroutines.
type Sequencer struct {
	clock   clock.Clock
	post    func(Action) bool
	local   func(Action)
	painter Painter

	// frameTimeout is how long a requested frame may stay unacknowledged
	// before the timeline moves on without it. Zero waits forever.
	frameTimeout time.Duration

	nextFrameID uint64
	frames      map[uint64]*Timeline
	deadlines   map[uint64]clock.Timer
	timers      map[*Timeline]clock.Timer
	active      *Timeline
}

// NewSequencer returns a Sequencer. post delivers continuations from timer
// and effect goroutines; local queues one from the loop goroutine itself and
// must not block.
func NewSequencer(clk clock.Clock, post func(Action) bool, local func(Action), painter Painter) *Sequencer {
	return &Sequencer{
		clock:     clk,
		post:      post,
		local:     local,
		painter:   painter,
		frames:    make(map[uint64]*Timeline),
		deadlines: make(map[uint64]clock.Timer),
		timers:    make(map[*Timeline]clock.Timer),
	}
}

// Timeline starts building a timeline owned by r.
func (s *Sequencer) Timeline(name string, r *Round) *Timeline {
	return &Timeline{name: name, seq: s, owner: r}
}

func (s *Sequencer) after(t *Timeline, d time.Duration) {
	s.timers[t] = s.clock.AfterFunc(d, func() {
		s.post(Action{Type: actionStep, timeline: t})
	})
}

func (s *Sequencer) resume(t *Timeline) {
	s.post(Action{Type: actionStep, timeline: t})
}

func (s *Sequencer) requestFrame(t *Timeline) {
	s.nextFrameID++
	id := s.nextFrameID
	s.frames[id] = t
	if s.painter == nil {
		s.local(Action{Type: ActionFrameAck, FrameID: id})
		return
	}
	if s.frameTimeout > 0 {
		s.deadlines[id] = s.clock.AfterFunc(s.frameTimeout, func() {
			s.post(Action{Type: actionFrameDeadline, FrameID: id})
		})
	}
	s.painter.RequestFrame(id)
}

func (s *Sequencer) clearDeadline(id uint64) {
	if timer, ok := s.deadlines[id]; ok {
		timer.Stop()
		delete(s.deadlines, id)
	}
}

// release forgets the timer of a timeline whose Wait or Await step completed.
func (s *Sequencer) release(t *Timeline) *Timeline {
	delete(s.timers, t)
	return t
}

// frameCommitted is called on the loop for a frame acknowledgement. It
// returns the timeline to continue, or nil if more frames are needed or the
// id is unknown.
func (s *Sequencer) frameCommitted(id uint64) *Timeline {
	t, ok := s.frames[id]
	if !ok {
		slog.Debug("ignoring unknown frame ack", "tag", "session", "frame", id)
		return nil
	}
	delete(s.frames, id)
	s.clearDeadline(id)
	t.framesLeft--
	if t.framesLeft > 0 {
		s.requestFrame(t)
		return nil
	}
	return t
}

// frameMissed is called on the loop when a frame's deadline passes. The
// frame counts as committed so a lost request cannot stall the timeline.
func (s *Sequencer) frameMissed(id uint64) *Timeline {
	t, ok := s.frames[id]
	if !ok {
		return nil
	}
	slog.Warn("frame not acknowledged in time, continuing", "tag", "session", "frame", id, "timeline", t.name)
	return s.frameCommitted(id)
}

// SetPainter swaps the painter. Frames still outstanding are requested again
// from the new painter, or acknowledged at once when there is none.
func (s *Sequencer) SetPainter(p Painter) {
	s.painter = p
	pending := s.frames
	s.frames = make(map[uint64]*Timeline)
	for id, t := range pending {
		s.clearDeadline(id)
		s.requestFrame(t)
	}
}

// Stop cancels every pending timer.
func (s *Sequencer) Stop() {
	for t, timer := range s.timers {
		timer.Stop()
		delete(s.timers, t)
	}
	for id := range s.deadlines {
		s.clearDeadline(id)
	}
	s.frames = make(map[uint64]*Timeline)
	s.active = nil
}
