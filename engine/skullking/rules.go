package skullking

import (
	"math/rand/v2"

	"github.com/jason-s-yu/cardgames/engine"
)

// Rules is the Skull King rule engine.
type Rules struct{}

// Setup seats players in roster order and deals round one.
func (Rules) Setup(players []string, rng *rand.Rand) *State {
	s := &State{
		Discard:      []Card{},
		RoundNumber:  1,
		Phase:        PhaseBidding,
		ReadyPlayers: []string{},
	}
	for _, name := range players {
		s.Players = append(s.Players, Player{Username: name, Hand: []Card{}})
	}
	s.Deck = NewShuffledDeck(rng)
	deal(s)
	return s
}

// Apply validates and applies one move, returning false without touching s
// when the move is not legal.
func (Rules) Apply(s *State, m engine.Move, rng *rand.Rand) bool {
	if s.Phase == PhaseGameOver || len(s.Players) == 0 {
		return false
	}
	kind := m.Kind
	if alias, ok := aliases[kind]; ok {
		kind = alias
	}

	switch kind {
	case ActionPlaceBid:
		bid, ok := m.Int("bid")
		if !ok {
			return false
		}
		return placeBid(s, m.Sender, bid)
	case ActionPlayCard:
		id, ok := m.String("cardId")
		if !ok {
			return false
		}
		return playCard(s, m.Sender, id)
	case ActionReady:
		return ready(s, m.Sender, rng)
	case ActionForceAdvanceRound:
		if s.Phase != PhaseRoundOver {
			return false
		}
		nextRound(s, rng)
		return true
	}
	return false
}

func placeBid(s *State, sender string, bid int) bool {
	if s.Phase != PhaseBidding || bid < 0 || bid > s.RoundNumber {
		return false
	}
	p := s.player(sender)
	if p == nil || p.Bid != nil {
		return false
	}
	p.Bid = &bid

	for _, other := range s.Players {
		if other.Bid == nil {
			return true
		}
	}
	s.Phase = PhasePlaying
	s.CurrentPlayerIndex = s.TrickStarterIndex
	return true
}

func playCard(s *State, sender, cardID string) bool {
	if s.Phase != PhasePlaying {
		return false
	}
	p := &s.Players[s.CurrentPlayerIndex]
	if p.Username != sender {
		return false
	}
	idx := -1
	for i, c := range p.Hand {
		if c.ID == cardID {
			idx = i
			break
		}
	}
	if idx < 0 || !legalPlay(s, p, p.Hand[idx]) {
		return false
	}

	var card Card
	p.Hand, card = engine.RemoveAt(p.Hand, idx)
	p.CardPlayed = &card

	for _, other := range s.Players {
		if other.CardPlayed == nil {
			s.CurrentPlayerIndex = (s.CurrentPlayerIndex + 1) % len(s.Players)
			return true
		}
	}
	resolveTrick(s)
	return true
}

// trickOrder returns player indices starting from the trick starter.
func trickOrder(s *State) []int {
	n := len(s.Players)
	order := make([]int, n)
	for i := range order {
		order[i] = (s.TrickStarterIndex + i) % n
	}
	return order
}

// legalPlay enforces following the lead suit. The lead is the first number
// card played this trick; special cards are always legal.
func legalPlay(s *State, p *Player, card Card) bool {
	var lead Color
	for _, i := range trickOrder(s) {
		if c := s.Players[i].CardPlayed; c != nil && c.Type == TypeNumber {
			lead = c.Color
			break
		}
	}
	if lead == "" || card.Type != TypeNumber {
		return true
	}
	for _, c := range p.Hand {
		if c.Type == TypeNumber && c.Color == lead {
			return card.Color == lead
		}
	}
	return true
}

func resolveTrick(s *State) {
	order := trickOrder(s)
	cards := make([]Card, len(order))
	for k, i := range order {
		cards[k] = *s.Players[i].CardPlayed
	}
	winner := order[TrickWinner(cards)]

	s.Players[winner].TricksWon++
	s.TrickWinner = s.Players[winner].Username
	s.TrickStarterIndex = winner
	s.Phase = PhaseTrickOver
	s.ReadyPlayers = []string{}
}

func ready(s *State, username string, rng *rand.Rand) bool {
	if s.Phase != PhaseTrickOver && s.Phase != PhaseRoundOver {
		return false
	}
	if s.player(username) == nil || engine.Contains(s.ReadyPlayers, username) {
		return false
	}
	s.ReadyPlayers = append(s.ReadyPlayers, username)
	if len(s.ReadyPlayers) < len(s.Players) {
		return true
	}
	if s.Phase == PhaseRoundOver {
		nextRound(s, rng)
	} else {
		nextTrick(s)
	}
	return true
}

// nextTrick clears the table. The round is over once the trick winner has no
// cards left to lead.
func nextTrick(s *State) {
	for i := range s.Players {
		if c := s.Players[i].CardPlayed; c != nil {
			s.Discard = append(s.Discard, *c)
			s.Players[i].CardPlayed = nil
		}
	}
	s.TrickWinner = ""
	s.ReadyPlayers = []string{}
	s.CurrentPlayerIndex = s.TrickStarterIndex

	if len(s.Players[s.TrickStarterIndex].Hand) > 0 {
		s.Phase = PhasePlaying
		return
	}
	for i := range s.Players {
		p := &s.Players[i]
		bid := 0
		if p.Bid != nil {
			bid = *p.Bid
		}
		p.RoundPoints = RoundPoints(bid, p.TricksWon, s.RoundNumber)
		p.Score += p.RoundPoints
	}
	s.Phase = PhaseRoundOver
	if s.RoundNumber >= MaxRounds {
		finish(s)
	}
}

// nextRound deals the following round from a fresh deck, or ends the game
// after the last round. The trick starter carries over.
func nextRound(s *State, rng *rand.Rand) {
	if s.RoundNumber >= MaxRounds {
		finish(s)
		return
	}
	s.RoundNumber++
	s.Phase = PhaseBidding
	s.ReadyPlayers = []string{}
	s.TrickWinner = ""
	s.Deck = NewShuffledDeck(rng)
	s.Discard = []Card{}
	for i := range s.Players {
		p := &s.Players[i]
		p.Hand = []Card{}
		p.Bid = nil
		p.TricksWon = 0
		p.CardPlayed = nil
		p.RoundPoints = 0
	}
	deal(s)
}

func deal(s *State) {
	for i := range s.Players {
		for k := 0; k < s.RoundNumber; k++ {
			c, ok := engine.DrawFront(&s.Deck)
			if !ok {
				break
			}
			s.Players[i].Hand = append(s.Players[i].Hand, c)
		}
	}
}

// finish ends the game. Ties go to the earliest seat.
func finish(s *State) {
	s.Phase = PhaseGameOver
	best := -1
	for i, p := range s.Players {
		if best < 0 || p.Score > s.Players[best].Score {
			best = i
		}
	}
	if best >= 0 {
		s.Winner = s.Players[best].Username
	}
}

// View returns the broadcast view of s.
func (Rules) View(s *State) any { return NewView(s) }

// Result reports the outcome of s.
func (Rules) Result(s *State) engine.Result { return s.Result() }
