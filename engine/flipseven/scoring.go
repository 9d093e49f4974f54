package flipseven

// IsBust reports whether a hand holds the same number value twice.
// Neutralized cards are ignored.
func IsBust(hand []Card) bool {
	seen := make(map[int]bool, len(hand))
	for _, c := range hand {
		if c.NoEffect || c.Type != TypeNumber {
			continue
		}
		if seen[c.Value] {
			return true
		}
		seen[c.Value] = true
	}
	return false
}

// UniqueNumbers counts the distinct live number values in a hand.
func UniqueNumbers(hand []Card) int {
	seen := make(map[int]bool, len(hand))
	for _, c := range hand {
		if c.NoEffect || c.Type != TypeNumber {
			continue
		}
		seen[c.Value] = true
	}
	return len(seen)
}

// Score sums numbers and plus modifiers, then doubles once per live x2.
func Score(hand []Card) int {
	score, multiplier := 0, 1
	for _, c := range hand {
		if c.NoEffect {
			continue
		}
		switch c.Type {
		case TypeNumber, TypePlus:
			score += c.Value
		case TypeMultiply:
			multiplier *= 2
		}
	}
	return score * multiplier
}
