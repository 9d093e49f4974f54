// Package flipseven implements the Flip Seven push-your-luck rules: players
// draw number, action and modifier cards one at a time, bust on a duplicate
// number, and bank their round score by staying.
package flipseven

import (
	"math/rand/v2"
	"strconv"

	"github.com/jason-s-yu/cardgames/engine"
)

// CardType enumerates the Flip Seven card kinds.
type CardType string

const (
	TypeNumber       CardType = "NUMBER"
	TypeFreeze       CardType = "ACTION_FREEZE"
	TypeFlip3        CardType = "ACTION_FLIP3"
	TypeSecondChance CardType = "ACTION_SECOND_CHANCE"
	TypePlus         CardType = "MODIFIER_PLUS"
	TypeMultiply     CardType = "MODIFIER_MULTIPLY"
)

// Card is one physical card. NoEffect marks a card that stays in the hand but
// no longer counts for scoring, bust detection or pending actions.
type Card struct {
	ID       string   `json:"id"`
	Type     CardType `json:"type"`
	Value    int      `json:"value"`
	Name     string   `json:"name"`
	NoEffect bool     `json:"noEffect,omitempty"`
}

func newCard(t CardType, value int, name string) Card {
	return Card{ID: engine.NewCardID(), Type: t, Value: value, Name: name}
}

// NewDeck returns the 94-card deck in its printed order: one 0, one 1, then
// N copies of each number N from 2 to 12, three of each action card, the
// +2..+10 modifiers and a single x2.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	deck = append(deck, newCard(TypeNumber, 0, "0"), newCard(TypeNumber, 1, "1"))
	for n := 2; n <= 12; n++ {
		for k := 0; k < n; k++ {
			deck = append(deck, newCard(TypeNumber, n, strconv.Itoa(n)))
		}
	}
	for i := 0; i < 3; i++ {
		deck = append(deck,
			newCard(TypeFreeze, 0, "Freeze"),
			newCard(TypeFlip3, 0, "Flip 3"),
			newCard(TypeSecondChance, 0, "Second Chance"),
		)
	}
	for v := 2; v <= 10; v += 2 {
		deck = append(deck, newCard(TypePlus, v, "+"+strconv.Itoa(v)))
	}
	deck = append(deck, newCard(TypeMultiply, 0, "x2"))
	return deck
}

// NewShuffledDeck returns a freshly built deck in uniformly random order.
func NewShuffledDeck(rng *rand.Rand) []Card {
	deck := NewDeck()
	engine.Shuffle(rng, deck)
	return deck
}
