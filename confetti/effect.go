package confetti

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"memory-match-server/clock"
	"memory-match-server/config"
)

// FrameSink receives each frame of a running effect. Calls come from the
// goroutine running Play.
type FrameSink interface {
	ConfettiFrame(f Frame)
}

// Effect plays a confetti burst on a fixed frame interval. The zero value is
// not usable; use New.
type Effect struct {
	Clock  clock.Clock
	Width  int
	Height int
	Frame  time.Duration
	Grace  time.Duration
	Sink   FrameSink
}

// New returns an Effect configured from cfg, pacing frames on clk.
func New(cfg config.CelebrationConfig, clk clock.Clock, sink FrameSink) *Effect {
	if clk == nil {
		clk = clock.New()
	}
	frame := time.Duration(cfg.FrameMS) * time.Millisecond
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	return &Effect{
		Clock:  clk,
		Width:  cfg.ViewportWidth,
		Height: cfg.ViewportHeight,
		Frame:  frame,
		Grace:  time.Duration(cfg.GraceMS) * time.Millisecond,
		Sink:   sink,
	}
}

// Play runs a burst for d and returns once every particle has fallen out of
// view or the grace period after d has passed. Concurrent calls each run
// their own burst. Play returns ctx.Err() if ctx is cancelled first.
func (e *Effect) Play(ctx context.Context, d time.Duration) error {
	start := e.Clock.Now()
	rng := rand.New(rand.NewSource(start.UnixNano()))
	burst := NewBurst(rng, e.Width, e.Height, d)
	slog.Debug("confetti started", "tag", "confetti", "particles", burst.Len(), "duration", d)

	tick := make(chan struct{}, 1)
	frames := 0
	for {
		timer := e.Clock.AfterFunc(e.Frame, func() {
			select {
			case tick <- struct{}{}:
			default:
			}
		})
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-tick:
		}

		elapsed := e.Clock.Now().Sub(start)
		f := burst.Step(elapsed)
		frames++
		if e.Sink != nil {
			e.Sink.ConfettiFrame(f)
		}

		if elapsed < d {
			continue
		}
		if burst.Exited(elapsed) || elapsed >= d+e.Grace {
			slog.Debug("confetti finished", "tag", "confetti", "frames", frames, "elapsed", elapsed)
			if e.Sink != nil {
				e.Sink.ConfettiFrame(Frame{Elapsed: elapsed, Particles: []Particle{}})
			}
			return nil
		}
	}
}
