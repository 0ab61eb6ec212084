package game

import "memory-match-server/catalog"

// CardView is the renderer-facing representation of a card.
// Payload and Hint are only included when the card is face up.
type CardView struct {
	Index   int    `json:"index"`
	State   string `json:"state"`
	FaceUp  bool   `json:"faceUp"`
	Shaking bool   `json:"shaking,omitempty"`
	Payload string `json:"payload,omitempty"`
	// Hint is the decimal value of a fraction card; empty for other variants.
	Hint string `json:"hint,omitempty"`
}

// RoundView is the full round state sent to the renderer.
type RoundView struct {
	Type         string     `json:"type"`
	RoundID      string     `json:"roundId"`
	Mode         string     `json:"mode"`
	Phase        string     `json:"phase"`
	Cards        []CardView `json:"cards"`
	Counter      int        `json:"counter"`
	CounterLabel string     `json:"counterLabel"`
	TimeLeft     int        `json:"timeLeft"`
	Locked       bool       `json:"locked"`
	BoardOpen    bool       `json:"boardOpen"`
	Covered      bool       `json:"covered"`
	MatchedPairs int        `json:"matchedPairs"`
	TotalPairs   int        `json:"totalPairs"`
}

// BuildCardViews constructs the renderer-facing card list.
// Face-down cards do not expose their payload.
func BuildCardViews(r *Round) []CardView {
	views := make([]CardView, len(r.Board.Cards))
	for i := range r.Board.Cards {
		card := &r.Board.Cards[i]
		cv := CardView{
			Index:   card.Index,
			State:   card.State.String(),
			FaceUp:  r.faceUp(card),
			Shaking: card.Shaking,
		}
		if cv.FaceUp {
			cv.Payload = card.Payload
			cv.Hint = catalog.FormatValue(card.Face)
		}
		views[i] = cv
	}
	return views
}

// BuildRoundView returns the view of r.
func BuildRoundView(r *Round) RoundView {
	return RoundView{
		Type:         "round_state",
		RoundID:      r.ID,
		Mode:         r.Mode.String(),
		Phase:        r.Phase().String(),
		Cards:        BuildCardViews(r),
		Counter:      r.Counter(),
		CounterLabel: r.CounterLabel(),
		TimeLeft:     r.TimeLeft,
		Locked:       r.Locked,
		BoardOpen:    r.BoardOpen,
		Covered:      r.Covered,
		MatchedPairs: MatchedCount(r.Board) / 2,
		TotalPairs:   len(r.Board.Cards) / 2,
	}
}
