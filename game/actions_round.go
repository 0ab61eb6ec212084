package game

import (
	"log/slog"
	"time"
)

const timeUpNotice = "Time's up!"

// unlock reopens input. A countdown that ran out during the transition ends
// the round now.
func (s *Session) unlock() {
	r := s.round
	r.Locked = false
	if r.Expired {
		s.timeUp()
		return
	}
	s.render()
}

func (s *Session) handleTick(gen uint64) {
	if !s.countdown.current(gen) {
		return
	}
	r := s.round
	if r.TimeLeft > 0 {
		r.TimeLeft--
	}
	if r.TimeLeft > 0 {
		s.countdown.schedule()
		s.render()
		return
	}

	s.countdown.stop()
	if r.Locked {
		// Let the in-flight comparison finish; unlock ends the round.
		r.Expired = true
		s.render()
		return
	}
	s.timeUp()
}

// timeUp ends the round as a loss and deals a new one without celebrating.
func (s *Session) timeUp() {
	r := s.round
	r.Locked = true
	r.Expired = false
	s.countdown.stop()
	slog.Info("round time is up", "tag", "session", "session", s.ID, "round", r.ID, "mode", r.Mode.String())
	s.recordOutcome(r, OutcomeTimeUp)
	s.render()
	s.notice(timeUpNotice)

	tl := s.seq.Timeline("time_up", r)
	s.rebuild(tl, r.Mode).
		Do(s.unlock).
		Start()
}

// win celebrates a completed board, then deals a new one in the same mode.
func (s *Session) win() {
	r := s.round
	r.Locked = true
	s.countdown.stop()
	slog.Info("round won", "tag", "session", "session", s.ID, "round", r.ID, "mode", r.Mode.String(), "counter", r.Counter())
	s.recordOutcome(r, OutcomeWon)
	s.render()

	tl := s.seq.Timeline("win", r).Await(s.celebrate)
	s.rebuild(tl, r.Mode).
		Do(s.unlock).
		Start()
}

func (s *Session) celebrate(resume func()) {
	if s.Celebration == nil {
		s.async(resume)
		return
	}
	d := ms(s.Config.Celebration.DurationMS)
	ctx := s.ctx
	s.async(func() {
		if err := s.Celebration.Play(ctx, d); err != nil {
			slog.Warn("celebration ended early", "tag", "session", "session", s.ID, "err", err)
		}
		resume()
	})
}

// rebuild appends the reshuffle choreography to tl: close every card, let the
// close transition finish, deal a new round, wait two committed frames so the
// closed board is on screen, then open it again in open mode. The new round
// stays locked; callers append the unlock.
func (s *Session) rebuild(tl *Timeline, mode Mode) *Timeline {
	flipWait := ms(s.Config.Animation.FlipMS + 50)
	return tl.
		Do(func() {
			r := s.round
			r.BoardOpen = false
			r.Covered = true
			for i := range r.Board.Cards {
				r.Board.Cards[i].Shaking = false
			}
			s.render()
		}).
		Wait(flipWait).
		Do(func() {
			nr := s.newRound(mode)
			nr.Locked = true
			nr.BoardOpen = false
			s.install(tl, nr)
			s.render()
		}).
		Frames(2).
		Do(func() {
			if mode == ModeOpen {
				s.round.BoardOpen = true
			}
			s.render()
		})
}

func (s *Session) handleRestart() {
	r := s.round
	if r.Locked {
		slog.Debug("restart refused while locked", "tag", "session", "session", s.ID)
		return
	}
	s.countdown.stop()
	r.Locked = true

	// Cards flip back before the new faces are dealt so they never show
	// mid-flip. Open mode also waits for the reopen flip.
	tl := s.seq.Timeline("restart", r)
	s.rebuild(tl, r.Mode)
	if r.Mode == ModeOpen {
		tl.Wait(ms(s.Config.Animation.FlipMS + 50))
	}
	tl.Do(s.unlock).Start()
}

func (s *Session) recordOutcome(r *Round, outcome Outcome) {
	if s.OnRoundEnd == nil {
		return
	}
	now := s.clock.Now()
	var elapsed time.Duration
	if !s.startedAt.IsZero() {
		elapsed = now.Sub(s.startedAt)
	}
	s.OnRoundEnd(RoundResult{
		SessionID:    s.ID,
		RoundID:      r.ID,
		Variant:      s.Catalog.Name(),
		Mode:         r.Mode,
		Outcome:      outcome,
		Counter:      r.Counter(),
		MatchedPairs: MatchedCount(r.Board) / 2,
		TotalPairs:   len(r.Board.Cards) / 2,
		Duration:     elapsed,
		EndedAt:      now,
	})
}
