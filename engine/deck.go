package engine

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// NewCardID returns an identifier for one physical card instance. Two cards
// that share kind and value still get distinct ids.
func NewCardID() string {
	return uuid.NewString()
}

// NewRand returns a PCG-backed generator for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// TimeSeed is the default seed source.
func TimeSeed() uint64 {
	return uint64(time.Now().UnixNano()) ^ rand.Uint64()
}

// Shuffle performs an in-place Fisher-Yates shuffle.
func Shuffle[T any](rng *rand.Rand, pile []T) {
	for i := len(pile) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		pile[i], pile[j] = pile[j], pile[i]
	}
}

// DrawFront pops the first element of a pile. The front of the slice is the
// top of the pile.
func DrawFront[T any](pile *[]T) (T, bool) {
	var zero T
	if len(*pile) == 0 {
		return zero, false
	}
	c := (*pile)[0]
	*pile = (*pile)[1:]
	return c, true
}

// RemoveAt removes index i while keeping the order of the remaining elements.
func RemoveAt[T any](pile []T, i int) ([]T, T) {
	c := pile[i]
	out := make([]T, 0, len(pile)-1)
	out = append(out, pile[:i]...)
	out = append(out, pile[i+1:]...)
	return out, c
}

// Contains reports whether name is in names.
func Contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
