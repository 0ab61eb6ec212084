package game

import "log/slog"

// handleSwitchMode toggles between closed and open mode. A switch is only
// admitted between rounds: never while locked and never once the first click
// has started the countdown.
func (s *Session) handleSwitchMode() {
	r := s.round
	if r.Locked || !r.AwaitingFirstClick {
		slog.Debug("mode switch refused", "tag", "session", "session", s.ID, "locked", r.Locked, "awaitingFirstClick", r.AwaitingFirstClick)
		return
	}

	s.countdown.stop()
	target := r.Mode.Other()
	r.Locked = true
	settle := ms(s.Config.Animation.SwitchSettleMS)
	tl := s.seq.Timeline("switch_mode", r)

	if target == ModeOpen {
		// Shuffle while still face down, then open.
		tl.Do(func() {
			nr := s.newRound(ModeOpen)
			nr.Locked = true
			s.install(tl, nr)
			s.render()
		}).
			Wait(settle)
	} else {
		// Close first, then shuffle out of sight.
		tl.Do(func() {
			r.BoardOpen = false
			s.render()
		}).
			Wait(settle).
			Do(func() {
				nr := s.newRound(ModeClosed)
				nr.Locked = true
				s.install(tl, nr)
			})
	}
	tl.Do(s.unlock)

	slog.Info("switching mode", "tag", "session", "session", s.ID, "from", r.Mode.String(), "to", target.String())
	tl.Start()
}
