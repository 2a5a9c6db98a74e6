// Package deck models the 52-card sequence the shuffle search works on:
// permutations, their card faces, shuffling and displacement scoring.
package deck

import (
	"fmt"

	"github.com/samber/lo"
)

// Size is the number of cards in a deck.
const Size = 52

// Permutation is an ordering of the card values 0..51. Value v belongs at
// index v in sorted order.
type Permutation []int

// Card is the display form of a card value.
type Card struct {
	Value int    `json:"value"`
	Rank  string `json:"rank"`
	Suit  string `json:"suit"`
}

// String returns a representation like "♠A" or "♦10".
func (c Card) String() string {
	return c.Suit + c.Rank
}

// Suit order follows value/13.
var cardSuits = []string{"♠", "♥", "♦", "♣"}

// Rank order follows value%13.
var cardRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// CardOf returns the card face for value v in [0, 51].
func CardOf(v int) Card {
	return Card{Value: v, Rank: cardRanks[v%13], Suit: cardSuits[v/13]}
}

// Identity returns the sorted permutation [0, 1, ..., 51].
func Identity() Permutation {
	p := make(Permutation, Size)
	for i := range p {
		p[i] = i
	}
	return p
}

// Clone returns an independent copy.
func (p Permutation) Clone() Permutation {
	if p == nil {
		return nil
	}
	return append(Permutation(nil), p...)
}

// Cards maps the permutation to card faces.
func (p Permutation) Cards() []Card {
	return lo.Map(p, func(v int, _ int) Card { return CardOf(v) })
}

// Validate checks that p holds every value 0..51 exactly once.
func (p Permutation) Validate() error {
	if len(p) != Size {
		return fmt.Errorf("deck: permutation has %d values, want %d", len(p), Size)
	}
	var seen [Size]bool
	for i, v := range p {
		if v < 0 || v >= Size {
			return fmt.Errorf("deck: value %d at index %d out of range", v, i)
		}
		if seen[v] {
			return fmt.Errorf("deck: duplicate value %d at index %d", v, i)
		}
		seen[v] = true
	}
	return nil
}
