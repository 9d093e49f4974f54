package uno

import (
	"math/rand/v2"

	"github.com/jason-s-yu/cardgames/engine"
)

// maxFlipAttempts bounds the search for an opening card that is not a wild
// draw four.
const maxFlipAttempts = 64

// Rules is the Uno rule engine.
type Rules struct{}

// Setup seats players in random order, deals seven cards each and turns the
// opening card. A wild draw four is never the opening card.
func (Rules) Setup(players []string, rng *rand.Rand) *State {
	order := append([]string(nil), players...)
	engine.Shuffle(rng, order)

	s := &State{
		Deck:        NewShuffledDeck(rng),
		DiscardPile: []Card{},
		Direction:   1,
	}
	for _, name := range order {
		s.Players = append(s.Players, Player{Username: name, Hand: []Card{}})
	}
	for i := range s.Players {
		for k := 0; k < HandSize; k++ {
			drawOne(s, i, rng)
		}
	}

	for try := 0; try < maxFlipAttempts; try++ {
		c, ok := engine.DrawFront(&s.Deck)
		if !ok {
			break
		}
		if c.Type == TypeWildDrawFour {
			s.Deck = append(s.Deck, c)
			engine.Shuffle(rng, s.Deck)
			continue
		}
		s.DiscardPile = append(s.DiscardPile, c)
		openingCard(s, c, rng)
		break
	}
	return s
}

// openingCard applies the effect of the first card turned face up. The
// current player takes the hit.
func openingCard(s *State, c Card, rng *rand.Rand) {
	if c.Color != ColorNone {
		s.CurrentColor = c.Color
	}
	switch c.Type {
	case TypeWild:
		s.WaitingForColorSelection = true
		s.PendingActionInitiator = s.Players[s.CurrentPlayerIndex].Username
	case TypeDrawTwo:
		drawN(s, s.CurrentPlayerIndex, 2, rng)
		advance(s, 1, rng)
	case TypeReverse:
		if len(s.Players) == 2 {
			advance(s, 1, rng)
		} else {
			s.Direction = -1
		}
	case TypeSkip:
		advance(s, 1, rng)
	}
}

// Apply validates and applies one move, returning false without touching s
// when the move is not legal.
func (Rules) Apply(s *State, m engine.Move, rng *rand.Rand) bool {
	if s.GameOver || len(s.Players) == 0 {
		return false
	}
	kind := m.Kind
	if alias, ok := aliases[kind]; ok {
		kind = alias
	}

	switch kind {
	case ActionPlayCard:
		id, ok := m.String("cardId")
		if !ok {
			return false
		}
		return playCard(s, m.Sender, id, m.Bool("saidUno"), rng)
	case ActionDrawCard:
		return drawCard(s, m.Sender, rng)
	case ActionSelectColor:
		name, ok := m.String("color")
		if !ok {
			return false
		}
		color, ok := ParseColor(name)
		if !ok {
			return false
		}
		return selectColor(s, m.Sender, color, rng)
	case ActionDeclareCall:
		// A call only counts when the player is about to be down to one card.
		i := s.playerIndex(m.Sender)
		if i < 0 || s.Players[i].SaidUno || len(s.Players[i].Hand) > 2 {
			return false
		}
		s.Players[i].SaidUno = true
		return true
	}
	return false
}

// Intercepts reports whether card may be played out of turn on top: the same
// color and either the same number or the same action.
func Intercepts(card, top Card) bool {
	if card.Color == ColorNone || card.Color != top.Color {
		return false
	}
	if card.Type == TypeNumber && top.Type == TypeNumber {
		return sameValue(card, top)
	}
	return card.Type == top.Type && card.Type != TypeNumber
}

// Playable reports whether card may be played on top while color is the
// color in force.
func Playable(card, top Card, color Color) bool {
	switch {
	case card.Color == ColorNone:
		return true
	case card.Color == color:
		return true
	case sameValue(card, top):
		return true
	}
	return card.Type == top.Type && card.Type != TypeNumber
}

func playCard(s *State, sender, cardID string, saidUno bool, rng *rand.Rand) bool {
	if s.WaitingForColorSelection {
		return false
	}
	idx := s.playerIndex(sender)
	if idx < 0 {
		return false
	}
	p := &s.Players[idx]
	ci := -1
	for i, c := range p.Hand {
		if c.ID == cardID {
			ci = i
			break
		}
	}
	top, ok := s.Top()
	if ci < 0 || !ok {
		return false
	}
	card := p.Hand[ci]
	if idx != s.CurrentPlayerIndex && !Intercepts(card, top) {
		return false
	}
	if !Playable(card, top, s.CurrentColor) {
		return false
	}

	s.CurrentPlayerIndex = idx
	if saidUno {
		p.SaidUno = true
	}
	p.Hand, _ = engine.RemoveAt(p.Hand, ci)
	s.DiscardPile = append(s.DiscardPile, card)
	if len(p.Hand) > 1 {
		p.SaidUno = false
	}
	if card.Color != ColorNone {
		s.CurrentColor = card.Color
	}
	if len(p.Hand) == 0 {
		s.GameOver = true
		s.Winner = p.Username
		return true
	}

	switch card.Type {
	case TypeSkip:
		advance(s, 2, rng)
	case TypeReverse:
		if len(s.Players) == 2 {
			advance(s, 2, rng)
		} else {
			s.Direction = -s.Direction
			advance(s, 1, rng)
		}
	case TypeDrawTwo:
		drawN(s, s.offset(1), 2, rng)
		advance(s, 2, rng)
	case TypeWild, TypeWildDrawFour:
		s.WaitingForColorSelection = true
		s.PendingActionInitiator = p.Username
	default:
		advance(s, 1, rng)
	}
	return true
}

// selectColor resolves a wild. The chosen color is bound to the wild on the
// pile; a wild draw four then makes the next player draw four and lose
// their turn.
func selectColor(s *State, sender string, color Color, rng *rand.Rand) bool {
	if !s.WaitingForColorSelection || s.PendingActionInitiator != sender {
		return false
	}
	if s.Players[s.CurrentPlayerIndex].Username != sender {
		return false
	}
	s.CurrentColor = color
	s.WaitingForColorSelection = false
	s.PendingActionInitiator = ""

	top := &s.DiscardPile[len(s.DiscardPile)-1]
	if top.IsWild() {
		top.Color = color
	}
	if top.Type == TypeWildDrawFour {
		drawN(s, s.offset(1), 4, rng)
		advance(s, 2, rng)
		return true
	}
	advance(s, 1, rng)
	return true
}

// drawCard draws one card for the current player. The turn passes unless the
// card drawn could be played straight away.
func drawCard(s *State, sender string, rng *rand.Rand) bool {
	if s.WaitingForColorSelection || s.Players[s.CurrentPlayerIndex].Username != sender {
		return false
	}
	drawn, ok := drawOne(s, s.CurrentPlayerIndex, rng)
	if !ok {
		advance(s, 1, rng)
		return true
	}
	top, _ := s.Top()
	if !Playable(drawn, top, s.CurrentColor) {
		advance(s, 1, rng)
	}
	return true
}

// advance closes out the current player's turn and moves the cursor. A
// player left holding one card without having called it draws two.
func advance(s *State, steps int, rng *rand.Rand) {
	cur := s.CurrentPlayerIndex
	if !s.GameOver && len(s.Players[cur].Hand) == 1 && !s.Players[cur].SaidUno {
		drawN(s, cur, 2, rng)
	}
	if len(s.Players[cur].Hand) != 1 {
		s.Players[cur].SaidUno = false
	}
	s.CurrentPlayerIndex = s.offset(steps)
	s.WaitingForColorSelection = false
	s.PendingActionInitiator = ""
}

func drawN(s *State, player, n int, rng *rand.Rand) {
	for i := 0; i < n; i++ {
		drawOne(s, player, rng)
	}
}

func drawOne(s *State, player int, rng *rand.Rand) (Card, bool) {
	if len(s.Deck) == 0 {
		reshuffle(s, rng)
	}
	c, ok := engine.DrawFront(&s.Deck)
	if !ok {
		return Card{}, false
	}
	p := &s.Players[player]
	p.Hand = append(p.Hand, c)
	if len(p.Hand) != 1 {
		p.SaidUno = false
	}
	return c, true
}

// reshuffle turns the discard pile, minus the card in play, into a new draw
// pile. Wilds lose their chosen color.
func reshuffle(s *State, rng *rand.Rand) {
	if len(s.DiscardPile) <= 1 {
		return
	}
	last := len(s.DiscardPile) - 1
	top := s.DiscardPile[last]
	rest := append([]Card(nil), s.DiscardPile[:last]...)
	for i := range rest {
		if rest[i].IsWild() {
			rest[i].Color = ColorNone
		}
	}
	engine.Shuffle(rng, rest)
	s.Deck = append(s.Deck, rest...)
	s.DiscardPile = []Card{top}
}

// View returns the broadcast view of s.
func (Rules) View(s *State) any { return NewView(s) }

// Result reports the outcome of s.
func (Rules) Result(s *State) engine.Result { return s.Result() }
