package flipseven

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func num(v int) Card {
	return newCard(TypeNumber, v, "")
}

func action(t CardType) Card {
	return newCard(t, 0, string(t))
}

// TestIsBust verifies duplicate live numbers bust and neutralized ones do not.
func TestIsBust(t *testing.T) {
	assert.True(t, IsBust([]Card{num(2), num(5), num(5)}))
	assert.False(t, IsBust([]Card{num(2), num(5), num(7)}))

	spent := num(5)
	spent.NoEffect = true
	assert.False(t, IsBust([]Card{num(2), num(5), spent}))
	assert.False(t, IsBust(nil))
}

// TestScore verifies numbers and plus modifiers sum before doubling.
func TestScore(t *testing.T) {
	hand := []Card{num(3), newCard(TypePlus, 4, "+4"), newCard(TypeMultiply, 0, "x2")}
	assert.Equal(t, 14, Score(hand))

	hand[1].NoEffect = true
	assert.Equal(t, 6, Score(hand))
	assert.Equal(t, 0, Score([]Card{action(TypeFreeze)}))
}

func TestUniqueNumbers(t *testing.T) {
	assert.Equal(t, 3, UniqueNumbers([]Card{num(1), num(2), num(2), num(3), action(TypeFlip3)}))
}

// TestNewDeckComposition verifies the printed deck contents.
func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	assert.Len(t, deck, DeckSize)

	counts := map[CardType]int{}
	numbers := map[int]int{}
	ids := map[string]bool{}
	for _, c := range deck {
		counts[c.Type]++
		if c.Type == TypeNumber {
			numbers[c.Value]++
		}
		assert.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true
	}
	assert.Equal(t, 79, counts[TypeNumber])
	assert.Equal(t, 3, counts[TypeFreeze])
	assert.Equal(t, 3, counts[TypeFlip3])
	assert.Equal(t, 3, counts[TypeSecondChance])
	assert.Equal(t, 5, counts[TypePlus])
	assert.Equal(t, 1, counts[TypeMultiply])
	assert.Equal(t, 1, numbers[0])
	assert.Equal(t, 1, numbers[1])
	for n := 2; n <= 12; n++ {
		assert.Equal(t, n, numbers[n], "copies of %d", n)
	}
}
