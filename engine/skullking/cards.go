// Package skullking implements the Skull King bid-then-trick rules: each
// round players bid how many tricks they will take, play the tricks out under
// a fixed card hierarchy, and score on how close they came to their bid.
package skullking

import (
	"math/rand/v2"

	"github.com/jason-s-yu/cardgames/engine"
)

// CardType enumerates the Skull King card kinds.
type CardType string

const (
	TypeNumber    CardType = "NUMBER"
	TypePirate    CardType = "PIRATE"
	TypeMermaid   CardType = "MERMAID"
	TypeSkullKing CardType = "SKULL_KING"
	TypeEscape    CardType = "ESCAPE"
)

// Color is a suit. Black is trump; special cards carry ColorNone.
type Color string

const (
	ColorYellow Color = "YELLOW"
	ColorGreen  Color = "GREEN"
	ColorPurple Color = "PURPLE"
	ColorRed    Color = "RED"
	ColorBlack  Color = "BLACK"
	ColorNone   Color = "NONE"
)

// Suits lists the four ordinary suits.
var Suits = []Color{ColorYellow, ColorGreen, ColorPurple, ColorRed}

const (
	DeckSize     = 83
	CardsPerSuit = 14
)

// Card is one physical card.
type Card struct {
	ID    string   `json:"id"`
	Type  CardType `json:"type"`
	Color Color    `json:"color"`
	Value int      `json:"value"`
}

func newCard(t CardType, c Color, v int) Card {
	return Card{ID: engine.NewCardID(), Type: t, Color: c, Value: v}
}

// NewDeck returns the 83-card deck in printed order: four suits and the black
// trump suit from 1 to 14, five pirates, two mermaids, the Skull King and five
// escapes.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, suit := range append(append([]Color{}, Suits...), ColorBlack) {
		for v := 1; v <= CardsPerSuit; v++ {
			deck = append(deck, newCard(TypeNumber, suit, v))
		}
	}
	for i := 0; i < 5; i++ {
		deck = append(deck, newCard(TypePirate, ColorNone, 0))
	}
	for i := 0; i < 2; i++ {
		deck = append(deck, newCard(TypeMermaid, ColorNone, 0))
	}
	deck = append(deck, newCard(TypeSkullKing, ColorNone, 0))
	for i := 0; i < 5; i++ {
		deck = append(deck, newCard(TypeEscape, ColorNone, 0))
	}
	return deck
}

// NewShuffledDeck returns a freshly built deck in uniformly random order.
func NewShuffledDeck(rng *rand.Rand) []Card {
	deck := NewDeck()
	engine.Shuffle(rng, deck)
	return deck
}
