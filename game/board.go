package game

import (
	"math/rand"

	"memory-match-server/catalog"
)

// CardState represents the presentation state of a card.
type CardState int

const (
	Hidden CardState = iota
	Revealed
	Selected
	Matched
	Mismatched
)

// String returns the string representation of a CardState.
func (cs CardState) String() string {
	switch cs {
	case Hidden:
		return "hidden"
	case Revealed:
		return "revealed"
	case Selected:
		return "selected"
	case Matched:
		return "matched"
	case Mismatched:
		return "mismatched"
	default:
		return "unknown"
	}
}

// Card represents a single card on the board. Face, PairKey and Payload never
// change after the board is dealt.
type Card struct {
	Index   int
	Face    string
	PairKey string
	Payload string
	State   CardState
	// Shaking is set while the mismatch shake animation plays.
	Shaking bool
}

// Board is the ordered card arrangement of one round.
type Board struct {
	Cards []Card
}

// NewBoard deals 2*pairCount cards from the first pairCount pairs of cat and
// shuffles them with an unbiased Fisher-Yates shuffle. If rng is nil the
// global source is used. A catalog with fewer pairs yields a smaller board.
func NewBoard(cat *catalog.Catalog, pairCount int, rng *rand.Rand) *Board {
	if pairCount > cat.PairCount() {
		pairCount = cat.PairCount()
	}
	if pairCount < 0 {
		pairCount = 0
	}
	faces := cat.Faces()[:2*pairCount]

	cards := make([]Card, len(faces))
	for i, face := range faces {
		key, _ := cat.PairKey(face)
		cards[i] = Card{
			Face:    face,
			PairKey: key,
			Payload: cat.Payload(face),
			State:   Hidden,
		}
	}

	swap := func(i, j int) { cards[i], cards[j] = cards[j], cards[i] }
	if rng != nil {
		rng.Shuffle(len(cards), swap)
	} else {
		rand.Shuffle(len(cards), swap)
	}

	// Assign indices after shuffle
	for i := range cards {
		cards[i].Index = i
	}

	return &Board{Cards: cards}
}

// MatchedCount returns how many cards are in the Matched state.
func MatchedCount(board *Board) int {
	n := 0
	for _, card := range board.Cards {
		if card.State == Matched {
			n++
		}
	}
	return n
}

// AllMatched returns true if every card on the board is in the Matched state.
func AllMatched(board *Board) bool {
	return len(board.Cards) > 0 && MatchedCount(board) == len(board.Cards)
}
