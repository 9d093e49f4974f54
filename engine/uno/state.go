package uno

import "github.com/jason-s-yu/cardgames/engine"

// HandSize is the opening deal.
const HandSize = 7

// Action kinds.
const (
	ActionPlayCard    = "PLAY_CARD"
	ActionDrawCard    = "DRAW_CARD"
	ActionSelectColor = "SELECT_COLOR"
	ActionDeclareCall = "DECLARE_CALL"
)

var aliases = map[string]string{
	"SAY_UNO": ActionDeclareCall,
}

type Player struct {
	Username string `json:"username"`
	Hand     []Card `json:"hand"`
	SaidUno  bool   `json:"saidUno"`
}

// State is the full aggregate for one Uno session. The last card of
// DiscardPile is the card in play.
type State struct {
	Deck                     []Card   `json:"deck"`
	DiscardPile              []Card   `json:"discardPile"`
	Players                  []Player `json:"players"`
	CurrentPlayerIndex       int      `json:"currentPlayerIndex"`
	Direction                int      `json:"direction"`
	CurrentColor             Color    `json:"currentColor"`
	WaitingForColorSelection bool     `json:"waitingForColorSelection"`
	PendingActionInitiator   string   `json:"pendingActionInitiator,omitempty"`
	GameOver                 bool     `json:"gameOver"`
	Winner                   string   `json:"winner,omitempty"`
}

// Top returns the card in play.
func (s *State) Top() (Card, bool) {
	if len(s.DiscardPile) == 0 {
		return Card{}, false
	}
	return s.DiscardPile[len(s.DiscardPile)-1], true
}

func (s *State) playerIndex(username string) int {
	for i := range s.Players {
		if s.Players[i].Username == username {
			return i
		}
	}
	return -1
}

// offset returns the seat steps places away in the current direction.
func (s *State) offset(steps int) int {
	n := len(s.Players)
	next := (s.CurrentPlayerIndex + s.Direction*steps) % n
	if next < 0 {
		next += n
	}
	return next
}

// CardCount returns the number of cards held anywhere in the aggregate.
func (s *State) CardCount() int {
	n := len(s.Deck) + len(s.DiscardPile)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

// Result reports the outcome. Each score is the number of cards the player
// still holds.
func (s *State) Result() engine.Result {
	r := engine.Result{Over: s.GameOver, Winner: s.Winner}
	for _, p := range s.Players {
		r.Scores = append(r.Scores, engine.Score{Username: p.Username, Score: len(p.Hand)})
	}
	return r
}
