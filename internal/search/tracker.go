package search

import (
	"math"

	"github.com/MJE43/everything-launcher/internal/deck"
)

// BestResult is the lowest-displacement permutation observed in a run.
// Before anything is observed Found is false and the displacement is
// math.MaxInt, standing in for +infinity.
type BestResult struct {
	Found bool             `json:"found"`
	Deck  deck.Permutation `json:"deck"`
	Score deck.Score       `json:"score"`
}

// NoBest returns the sentinel BestResult.
func NoBest() BestResult {
	return BestResult{Score: deck.Score{TotalDisplacement: math.MaxInt}}
}

func (b BestResult) clone() BestResult {
	b.Deck = b.Deck.Clone()
	return b
}

// Tracker retains the best permutation seen so far.
type Tracker struct {
	best BestResult
}

// NewTracker returns a tracker holding the sentinel.
func NewTracker() *Tracker {
	return &Tracker{best: NoBest()}
}

// Observe records p if it strictly improves on the stored displacement.
// Ties keep the earlier permutation. p is copied when stored.
func (t *Tracker) Observe(p deck.Permutation, s deck.Score) bool {
	if s.TotalDisplacement >= t.best.Score.TotalDisplacement {
		return false
	}
	t.best.Found = true
	t.best.Score = s
	if cap(t.best.Deck) < len(p) {
		t.best.Deck = make(deck.Permutation, len(p))
	}
	t.best.Deck = t.best.Deck[:len(p)]
	copy(t.best.Deck, p)
	return true
}

// Best returns a copy of the stored result.
func (t *Tracker) Best() BestResult {
	return t.best.clone()
}
