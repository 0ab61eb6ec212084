package game

import (
	"testing"

	"memory-match-server/catalog"
)

func TestBuildCardViews_HidesFaceDownPayload(t *testing.T) {
	h := newHarness(t)
	r := h.round()
	h.click(0)

	views := BuildCardViews(r)
	if !views[0].FaceUp || views[0].Payload == "" {
		t.Errorf("revealed card should expose payload, got %+v", views[0])
	}
	for _, v := range views[1:] {
		if v.FaceUp || v.Payload != "" {
			t.Errorf("face-down card %d leaked payload %q", v.Index, v.Payload)
		}
	}
}

func TestBuildCardViews_OpenBoard(t *testing.T) {
	h := newHarness(t)
	h.switchMode()
	r := h.round()

	for _, v := range BuildCardViews(r) {
		if !v.FaceUp || v.Payload == "" {
			t.Errorf("open board card %d should be face up with payload", v.Index)
		}
	}

	r.Covered = true
	for _, v := range BuildCardViews(r) {
		if v.FaceUp || v.Payload != "" {
			t.Errorf("covered card %d should be face down", v.Index)
		}
	}
}

func TestBuildCardViews_FractionHint(t *testing.T) {
	cat := catalog.Fractions()
	board := NewBoard(cat, 8, nil)
	r := newRound(ModeOpen, board, 120)

	for _, v := range BuildCardViews(r) {
		face := board.Cards[v.Index].Face
		want := catalog.FormatValue(face)
		if v.Hint == "" || v.Hint != want {
			t.Errorf("card %s: expected hint %q, got %q", face, want, v.Hint)
		}
	}
}

func TestBuildRoundView(t *testing.T) {
	h := newHarness(t)
	r := h.round()
	a, b := findPair(r)
	h.click(a)
	h.click(b)

	v := BuildRoundView(r)
	if v.Type != "round_state" {
		t.Errorf("expected type round_state, got %s", v.Type)
	}
	if v.Mode != "closed" || v.Phase != "idle" {
		t.Errorf("unexpected mode/phase %s/%s", v.Mode, v.Phase)
	}
	if v.Counter != 2 || v.CounterLabel != "Flips" {
		t.Errorf("unexpected counter %d %s", v.Counter, v.CounterLabel)
	}
	if v.MatchedPairs != 1 || v.TotalPairs != 8 {
		t.Errorf("expected 1/8 pairs, got %d/%d", v.MatchedPairs, v.TotalPairs)
	}
	if len(v.Cards) != 16 {
		t.Errorf("expected 16 cards, got %d", len(v.Cards))
	}
	if h.r.last().RoundID != r.ID {
		t.Errorf("renderer saw round %s, want %s", h.r.last().RoundID, r.ID)
	}
}
