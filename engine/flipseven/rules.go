package flipseven

import (
	"math/rand/v2"

	"github.com/jason-s-yu/cardgames/engine"
)

// Rules is the Flip Seven rule engine. It holds no state of its own.
type Rules struct{}

// Setup seats players in roster order, builds a shuffled deck and deals the
// first round.
func (Rules) Setup(players []string, rng *rand.Rand) *State {
	s := &State{
		Deck:         NewShuffledDeck(rng),
		Discard:      []Card{},
		ReadyPlayers: []string{},
	}
	for _, name := range players {
		s.Players = append(s.Players, Player{Username: name, Hand: []Card{}})
	}
	startRound(s, rng)
	return s
}

// Apply validates and applies one move. It returns false, leaving s untouched,
// when the move is not legal in the current state.
func (Rules) Apply(s *State, m engine.Move, rng *rand.Rand) bool {
	if s.GameOver || len(s.Players) == 0 {
		return false
	}
	kind := m.Kind
	if alias, ok := aliases[kind]; ok {
		kind = alias
	}

	if kind == ActionReady {
		return ready(s, m.Sender, rng)
	}
	if s.RoundOver {
		return false
	}

	if s.PendingActionType != "" {
		if kind != ActionSelectTarget || m.Sender != s.PendingActionInitiator {
			return false
		}
		target, ok := m.String("target")
		if !ok {
			return false
		}
		return selectTarget(s, target)
	}

	cur := s.current()
	if cur == nil || cur.Username != m.Sender || !cur.RoundActive {
		return false
	}
	switch kind {
	case ActionDraw:
		return draw(s, cur)
	case ActionStay:
		stay(s, cur)
		return true
	}
	return false
}

func draw(s *State, p *Player) bool {
	card, ok := engine.DrawFront(&s.Deck)
	if !ok {
		return false
	}
	p.Hand = append(p.Hand, card)
	drawn := &p.Hand[len(p.Hand)-1]

	switch card.Type {
	case TypeFreeze:
		s.openPending(PendingFreeze, p.Username)
		p.RoundScore = Score(p.Hand)
		return true
	case TypeFlip3:
		s.openPending(PendingFlip3, p.Username)
		p.RoundScore = Score(p.Hand)
		return true
	case TypeSecondChance:
		if p.HasSecondChance {
			s.openPending(PendingGiveSecondChance, p.Username)
			p.RoundScore = Score(p.Hand)
			return true
		}
		p.HasSecondChance = true
	}

	if IsBust(p.Hand) {
		if p.HasSecondChance {
			p.HasSecondChance = false
			drawn.NoEffect = true
		} else {
			bust(p)
		}
		advanceTurn(s)
		return true
	}

	p.RoundScore = Score(p.Hand)
	if UniqueNumbers(p.Hand) >= 7 {
		p.RoundScore += FlipSevenBonus
		stay(s, p)
		return true
	}
	advanceTurn(s)
	return true
}

func stay(s *State, p *Player) {
	commit(p)
	advanceTurn(s)
}

// commit banks the round score and takes the player out of the round.
func commit(p *Player) {
	p.TotalScore += p.RoundScore
	p.LastRoundScore = p.RoundScore
	p.RoundActive = false
	p.RoundScore = 0
}

func bust(p *Player) {
	p.RoundScore = 0
	p.LastRoundScore = 0
	p.RoundActive = false
}

func selectTarget(s *State, targetName string) bool {
	target := s.player(targetName)
	if target == nil || !target.RoundActive {
		return false
	}
	initiator := s.player(s.PendingActionInitiator)
	if initiator == nil {
		return false
	}

	switch s.PendingActionType {
	case PendingFreeze:
		neutralizeFirst(initiator, TypeFreeze)
		commit(target)
		s.clearPending()
		nextStep(s, initiator)
	case PendingFlip3:
		neutralizeFirst(initiator, TypeFlip3)
		s.Flip3ActiveTarget = target.Username
		s.Flip3DrawsRemaining = Flip3Draws
		s.clearPending()
		nextStep(s, target)
	case PendingGiveSecondChance:
		target.HasSecondChance = true
		s.clearPending()
		nextStep(s, initiator)
	default:
		return false
	}
	return true
}

// neutralizeFirst marks the first live card of type t in the player's hand as
// spent.
func neutralizeFirst(p *Player, t CardType) {
	for i := range p.Hand {
		if p.Hand[i].Type == t && !p.Hand[i].NoEffect {
			p.Hand[i].NoEffect = true
			return
		}
	}
}

// nextStep resumes an interrupted flip-three cascade, opens the next queued
// selection for active, or hands the turn on.
func nextStep(s *State, active *Player) {
	if s.Flip3DrawsRemaining > 0 && s.Flip3ActiveTarget != "" {
		if target := s.player(s.Flip3ActiveTarget); target != nil {
			flip3(s, target)
			return
		}
	}
	if popQueued(s, active) {
		return
	}
	s.Flip3ActiveTarget = ""
	s.Flip3DrawsRemaining = 0
	advanceTurn(s)
}

func popQueued(s *State, active *Player) bool {
	if len(s.PendingActionQueue) == 0 {
		return false
	}
	next := s.PendingActionQueue[0]
	s.PendingActionQueue = s.PendingActionQueue[1:]
	s.openPending(next, active.Username)
	return true
}

// flip3 draws the remaining forced cards into target's hand. Action cards
// drawn on the way are queued for the target to resolve once the draws are
// done; a surplus second chance suspends the cascade until it is given away.
func flip3(s *State, target *Player) {
	for s.Flip3DrawsRemaining > 0 {
		card, ok := engine.DrawFront(&s.Deck)
		if !ok {
			s.Flip3DrawsRemaining = 0
			break
		}
		target.Hand = append(target.Hand, card)
		s.Flip3DrawsRemaining--

		switch card.Type {
		case TypeFreeze:
			s.PendingActionQueue = append(s.PendingActionQueue, PendingFreeze)
		case TypeFlip3:
			s.PendingActionQueue = append(s.PendingActionQueue, PendingFlip3)
		case TypeSecondChance:
			if target.HasSecondChance {
				s.openPending(PendingGiveSecondChance, target.Username)
				target.RoundScore = Score(target.Hand)
				return
			}
			target.HasSecondChance = true
		}

		if IsBust(target.Hand) {
			if target.HasSecondChance {
				target.HasSecondChance = false
				target.Hand[len(target.Hand)-1].NoEffect = true
				continue
			}
			bust(target)
			s.Flip3DrawsRemaining = 0
			s.Flip3ActiveTarget = ""
			s.PendingActionQueue = nil
			advanceTurn(s)
			return
		}
		target.RoundScore = Score(target.Hand)
	}

	if popQueued(s, target) {
		return
	}
	s.Flip3ActiveTarget = ""
	s.Flip3DrawsRemaining = 0
	advanceTurn(s)
}

// advanceTurn moves the cursor to the next active player after the current
// one, wrapping around. With nobody left the round is resolved.
func advanceTurn(s *State) {
	n := len(s.Players)
	for i := 1; i <= n; i++ {
		next := (s.CurrentPlayerIndex + i) % n
		if s.Players[next].RoundActive {
			s.CurrentPlayerIndex = next
			openingAction(s, &s.Players[next])
			return
		}
	}
	resolveRound(s)
}

// openingAction opens a selection for a player whose whole hand is a single
// live freeze or flip-three dealt at round start.
func openingAction(s *State, p *Player) {
	if len(p.Hand) != 1 || p.Hand[0].NoEffect {
		return
	}
	switch p.Hand[0].Type {
	case TypeFreeze:
		s.openPending(PendingFreeze, p.Username)
	case TypeFlip3:
		s.openPending(PendingFlip3, p.Username)
	}
}

func resolveRound(s *State) {
	s.RoundOver = true
	s.ReadyPlayers = []string{}

	var best *Player
	for i := range s.Players {
		p := &s.Players[i]
		if p.TotalScore >= WinningScore && (best == nil || p.TotalScore > best.TotalScore) {
			best = p
		}
	}
	if best != nil {
		s.Winner = best.Username
		s.GameOver = true
	}
}

func ready(s *State, username string, rng *rand.Rand) bool {
	if !s.RoundOver || s.player(username) == nil || engine.Contains(s.ReadyPlayers, username) {
		return false
	}
	s.ReadyPlayers = append(s.ReadyPlayers, username)
	if len(s.ReadyPlayers) < len(s.Players) {
		return true
	}
	s.RoundOver = false
	s.ReadyPlayers = []string{}
	s.RoundStarterIndex = (s.RoundStarterIndex + 1) % len(s.Players)
	startRound(s, rng)
	return true
}

// startRound clears the table and deals one card to each player. The deck is
// rebuilt from scratch when it runs below five cards per player.
func startRound(s *State, rng *rand.Rand) {
	if len(s.Deck) < cardsPerPlayerReserve*len(s.Players) {
		s.Deck = NewShuffledDeck(rng)
		s.Discard = []Card{}
	} else {
		for i := range s.Players {
			s.Discard = append(s.Discard, s.Players[i].Hand...)
		}
	}

	s.Flip3DrawsRemaining = 0
	s.Flip3ActiveTarget = ""
	s.PendingActionQueue = nil
	s.clearPending()

	for i := range s.Players {
		p := &s.Players[i]
		p.RoundActive = true
		p.HasSecondChance = false
		p.Hand = []Card{}
		p.RoundScore = 0
		p.LastRoundScore = 0
		if c, ok := engine.DrawFront(&s.Deck); ok {
			p.Hand = append(p.Hand, c)
			if c.Type == TypeSecondChance {
				p.HasSecondChance = true
			}
		}
		p.RoundScore = Score(p.Hand)
	}

	s.Round++
	s.CurrentPlayerIndex = s.RoundStarterIndex
	if len(s.Players) > 0 {
		openingAction(s, &s.Players[s.CurrentPlayerIndex])
	}
}

// View returns the broadcast view of s.
func (Rules) View(s *State) any { return NewView(s) }

// Result reports the outcome of s.
func (Rules) Result(s *State) engine.Result { return s.Result() }
