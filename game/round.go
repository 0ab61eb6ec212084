package game

import "github.com/google/uuid"

// Mode selects how cards are played.
type Mode int

const (
	// ModeClosed starts with every card face down; cards are flipped one at a time.
	ModeClosed Mode = iota
	// ModeOpen shows every card face up; the player marks two cards to attempt a pair.
	ModeOpen
)

// String returns the protocol string for a Mode.
func (m Mode) String() string {
	switch m {
	case ModeClosed:
		return "closed"
	case ModeOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Other returns the mode a switch leads to.
func (m Mode) Other() Mode {
	if m == ModeOpen {
		return ModeClosed
	}
	return ModeOpen
}

// Phase is the selection engine's state, derived from the active set.
type Phase int

const (
	Idle Phase = iota
	OneSelected
	Resolving
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case OneSelected:
		return "one_selected"
	case Resolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// Round is the state of one dealt board. It is replaced, never reset, on
// restart, reshuffle and mode switch.
type Round struct {
	ID    string
	Mode  Mode
	Board *Board

	// Flips counts single flips in closed mode; Attempts counts completed
	// pair attempts in open mode.
	Flips    int
	Attempts int

	// TimeLeft is the countdown in seconds.
	TimeLeft int

	// Locked gates all input while a comparison or transition is in flight.
	Locked bool

	// AwaitingFirstClick is true until the first click starts the countdown.
	AwaitingFirstClick bool

	// Active holds the indices of cards pending comparison (at most 2).
	Active []int

	// BoardOpen is true while open-mode cards are physically face up.
	BoardOpen bool

	// Covered turns every card face down while the board is being replaced.
	Covered bool

	// Expired is set when the countdown ran out while Locked; the round ends
	// once the in-flight transition unlocks it.
	Expired bool
}

func newRound(mode Mode, board *Board, timeLeft int) *Round {
	return &Round{
		ID:                 uuid.NewString(),
		Mode:               mode,
		Board:              board,
		TimeLeft:           timeLeft,
		AwaitingFirstClick: true,
		Active:             make([]int, 0, 2),
		BoardOpen:          mode == ModeOpen,
	}
}

// Phase derives the selection engine state.
func (r *Round) Phase() Phase {
	switch {
	case len(r.Active) >= 2:
		return Resolving
	case len(r.Active) == 1:
		return OneSelected
	default:
		return Idle
	}
}

// Counter returns the counter the current mode displays.
func (r *Round) Counter() int {
	if r.Mode == ModeOpen {
		return r.Attempts
	}
	return r.Flips
}

// CounterLabel returns the caption shown next to Counter.
func (r *Round) CounterLabel() string {
	if r.Mode == ModeOpen {
		return "Attempts"
	}
	return "Flips"
}

func (r *Round) isActive(idx int) bool {
	for _, a := range r.Active {
		if a == idx {
			return true
		}
	}
	return false
}

func (r *Round) removeActive(idx int) {
	for i, a := range r.Active {
		if a == idx {
			r.Active = append(r.Active[:i], r.Active[i+1:]...)
			return
		}
	}
}

// faceUp reports whether the renderer should show the card's payload.
func (r *Round) faceUp(c *Card) bool {
	if r.Covered {
		return false
	}
	if r.Mode == ModeOpen {
		return r.BoardOpen
	}
	switch c.State {
	case Revealed, Matched, Mismatched:
		return true
	default:
		return false
	}
}
