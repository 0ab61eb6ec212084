package game

import "log/slog"

func (s *Session) handleClick(idx int) {
	r := s.round

	// A click while a comparison or transition is in flight is ignored entirely.
	if r.Locked {
		return
	}

	if idx < 0 || idx >= len(r.Board.Cards) {
		slog.Debug("click out of bounds", "tag", "session", "session", s.ID, "index", idx)
		return
	}

	card := &r.Board.Cards[idx]
	if card.State == Matched {
		return
	}

	if r.isActive(idx) {
		if r.Mode == ModeClosed {
			return
		}
		// Open mode: clicking a marked card unmarks it without counting an attempt.
		card.State = Hidden
		r.removeActive(idx)
		s.render()
		return
	}

	if r.AwaitingFirstClick {
		r.AwaitingFirstClick = false
		s.startedAt = s.clock.Now()
		s.countdown.start()
	}

	if r.Mode == ModeOpen {
		card.State = Selected
	} else {
		card.State = Revealed
		r.Flips++
	}
	r.Active = append(r.Active, idx)

	if len(r.Active) < 2 {
		s.render()
		return
	}

	if r.Mode == ModeOpen {
		r.Attempts++
	}
	r.Locked = true

	first := &r.Board.Cards[r.Active[0]]
	second := &r.Board.Cards[r.Active[1]]
	if first.PairKey != "" && first.PairKey == second.PairKey && s.Catalog.IsPair(first.Face, second.Face) {
		s.resolveMatch(first, second)
	} else {
		s.resolveMismatch(first, second)
	}
}

func (s *Session) resolveMatch(first, second *Card) {
	r := s.round
	first.State = Matched
	second.State = Matched
	r.Active = r.Active[:0]
	r.Locked = false

	if AllMatched(r.Board) {
		s.win()
		return
	}
	s.render()
}

// resolveMismatch marks both cards, shakes them and turns them back once the
// shake has played. Closed mode leaves the cards visible before the shake
// starts so the player can memorise them.
func (s *Session) resolveMismatch(first, second *Card) {
	r := s.round
	first.State = Mismatched
	second.State = Mismatched

	anim := s.Config.Animation
	tl := s.seq.Timeline("mismatch", r)
	if r.Mode == ModeClosed {
		tl.Wait(ms(anim.ShakeDelayMS)).
			Do(func() {
				first.Shaking = true
				second.Shaking = true
				s.render()
			}).
			Wait(ms(anim.MismatchMS - anim.ShakeDelayMS))
	} else {
		first.Shaking = true
		second.Shaking = true
		tl.Wait(ms(anim.OpenMismatchMS))
	}
	tl.Do(func() {
		for _, c := range []*Card{first, second} {
			c.State = Hidden
			c.Shaking = false
		}
		r.Active = r.Active[:0]
		s.unlock()
	})

	s.render()
	tl.Start()
}
