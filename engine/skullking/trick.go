package skullking

// Beats reports whether challenger takes the trick from best, given the
// trick's lead suit (empty when no number card has set one).
func Beats(challenger, best Card, lead Color) bool {
	switch {
	case challenger.Type == TypeSkullKing:
		return true
	case best.Type == TypeSkullKing:
		return false
	case challenger.Type == TypeMermaid:
		return best.Type != TypeMermaid
	case challenger.Type == TypePirate:
		return best.Type != TypeMermaid && best.Type != TypePirate
	case challenger.Type != TypeNumber:
		return false
	}

	if challenger.Color == ColorBlack {
		switch {
		case best.Type == TypeNumber && best.Color == ColorBlack:
			return challenger.Value > best.Value
		case best.Type == TypeNumber, best.Type == TypeEscape:
			return true
		}
	}
	if lead != "" && challenger.Color == lead {
		switch {
		case best.Type == TypeNumber && best.Color == lead:
			return challenger.Value > best.Value
		case best.Type == TypeEscape:
			return true
		case best.Type == TypeNumber && best.Color != ColorBlack:
			return true
		}
	}
	return false
}

// TrickWinner returns the index into cards of the winning card. cards is in
// play order. An escape lead hands the lead suit to the first non-escape card
// if that card is a number.
func TrickWinner(cards []Card) int {
	if len(cards) == 0 {
		return -1
	}
	lead := leadColor(cards)
	if cards[0].Type == TypeEscape {
		for _, c := range cards[1:] {
			if c.Type != TypeEscape {
				if c.Type == TypeNumber {
					lead = c.Color
				}
				break
			}
		}
	}

	best := 0
	for i := 1; i < len(cards); i++ {
		if Beats(cards[i], cards[best], lead) {
			best = i
		}
	}
	return best
}

func leadColor(cards []Card) Color {
	if cards[0].Type == TypeNumber {
		return cards[0].Color
	}
	return ""
}

// RoundPoints scores one player's round. A met bid pays 20 per trick, or 10
// per round number for a zero bid; a miss costs 10 per trick of difference.
func RoundPoints(bid, won, round int) int {
	if bid == won {
		if bid == 0 {
			return round * 10
		}
		return bid * 20
	}
	diff := bid - won
	if diff < 0 {
		diff = -diff
	}
	return -10 * diff
}
