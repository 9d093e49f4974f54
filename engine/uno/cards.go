// Package uno implements the Uno shedding rules, including out-of-turn
// interception with an identical card and the automatic penalty for not
// calling the last card.
package uno

import (
	"math/rand/v2"
	"strconv"

	"github.com/jason-s-yu/cardgames/engine"
)

type Color string

const (
	ColorRed    Color = "RED"
	ColorBlue   Color = "BLUE"
	ColorGreen  Color = "GREEN"
	ColorYellow Color = "YELLOW"
	ColorNone   Color = "NONE"
)

// Colors lists the four playable colors.
var Colors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// ParseColor accepts one of the four playable colors.
func ParseColor(s string) (Color, bool) {
	for _, c := range Colors {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type CardType string

const (
	TypeNumber       CardType = "NUMBER"
	TypeSkip         CardType = "SKIP"
	TypeReverse      CardType = "REVERSE"
	TypeDrawTwo      CardType = "DRAW_TWO"
	TypeWild         CardType = "WILD"
	TypeWildDrawFour CardType = "WILD_DRAW_FOUR"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 108

// Card is one physical card. Value is set for number cards only. A wild card
// on the discard pile carries the color chosen for it.
type Card struct {
	ID           string   `json:"id"`
	Color        Color    `json:"color"`
	Type         CardType `json:"type"`
	Value        *int     `json:"value"`
	DisplayValue string   `json:"displayValue"`
}

// IsWild reports whether c is one of the two wild kinds.
func (c Card) IsWild() bool {
	return c.Type == TypeWild || c.Type == TypeWildDrawFour
}

func sameValue(a, b Card) bool {
	return a.Value != nil && b.Value != nil && *a.Value == *b.Value
}

func numberCard(c Color, v int) Card {
	return Card{ID: engine.NewCardID(), Color: c, Type: TypeNumber, Value: &v, DisplayValue: strconv.Itoa(v)}
}

func actionCard(c Color, t CardType, display string) Card {
	return Card{ID: engine.NewCardID(), Color: c, Type: t, DisplayValue: display}
}

// NewDeck returns the 108-card deck: per color one 0, two of each 1 to 9 and
// two each of skip, reverse and draw two, then four wilds and four wild draw
// fours.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, c := range Colors {
		deck = append(deck, numberCard(c, 0))
		for v := 1; v <= 9; v++ {
			deck = append(deck, numberCard(c, v), numberCard(c, v))
		}
		for i := 0; i < 2; i++ {
			deck = append(deck,
				actionCard(c, TypeSkip, "Skip"),
				actionCard(c, TypeReverse, "Reverse"),
				actionCard(c, TypeDrawTwo, "+2"),
			)
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck,
			actionCard(ColorNone, TypeWild, "Wild"),
			actionCard(ColorNone, TypeWildDrawFour, "+4"),
		)
	}
	return deck
}

// NewShuffledDeck returns a freshly built deck in uniformly random order.
func NewShuffledDeck(rng *rand.Rand) []Card {
	deck := NewDeck()
	engine.Shuffle(rng, deck)
	return deck
}
