package flipseven

import "github.com/jason-s-yu/cardgames/engine"

const (
	DeckSize = 94

	// FlipSevenBonus is added to the round score of a player holding seven
	// distinct numbers.
	FlipSevenBonus = 15
	// WinningScore is the cumulative score that ends the game at round end.
	WinningScore = 200
	// Flip3Draws is the length of a forced-draw cascade.
	Flip3Draws = 3
	// cardsPerPlayerReserve is the per-player draw pile floor below which a new
	// round rebuilds the deck.
	cardsPerPlayerReserve = 5
)

// Action kinds.
const (
	ActionDraw         = "DRAW"
	ActionStay         = "STAY"
	ActionSelectTarget = "SELECT_TARGET"
	ActionReady        = "READY_FOR_NEXT_ROUND"
)

// aliases maps the legacy client vocabulary onto the action kinds.
var aliases = map[string]string{
	"HIT":          ActionDraw,
	"PLAYER_READY": ActionReady,
}

// PendingKind names the selection a player owes before play continues.
type PendingKind string

const (
	PendingFreeze           PendingKind = "FREEZE_SELECTION"
	PendingFlip3            PendingKind = "FLIP3_SELECTION"
	PendingGiveSecondChance PendingKind = "GIVE_SECOND_CHANCE"
)

// Phase is derived from the round and game flags.
type Phase string

const (
	PhasePlaying   Phase = "PLAYING"
	PhaseRoundOver Phase = "ROUND_OVER"
	PhaseGameOver  Phase = "GAME_OVER"
)

// Player is one seat at the table.
type Player struct {
	Username        string `json:"username"`
	Hand            []Card `json:"hand"`
	RoundScore      int    `json:"roundScore"`
	LastRoundScore  int    `json:"lastRoundScore"`
	TotalScore      int    `json:"totalScore"`
	RoundActive     bool   `json:"roundActive"`
	HasSecondChance bool   `json:"hasSecondChance"`
}

// State is the full aggregate for one Flip Seven session.
type State struct {
	Deck    []Card   `json:"deck"`
	Discard []Card   `json:"discard"`
	Players []Player `json:"players"`

	CurrentPlayerIndex int `json:"currentPlayerIndex"`
	RoundStarterIndex  int `json:"roundStarterIndex"`
	Round              int `json:"round"`

	PendingActionType      PendingKind   `json:"pendingActionType,omitempty"`
	PendingActionInitiator string        `json:"pendingActionInitiator,omitempty"`
	PendingActionQueue     []PendingKind `json:"pendingActionQueue,omitempty"`
	Flip3DrawsRemaining    int           `json:"flip3DrawsRemaining"`
	Flip3ActiveTarget      string        `json:"flip3ActiveTarget,omitempty"`

	RoundOver    bool     `json:"isRoundOver"`
	ReadyPlayers []string `json:"readyPlayers"`
	Winner       string   `json:"winner,omitempty"`
	GameOver     bool     `json:"isGameOver"`
}

// Phase returns the current phase tag.
func (s *State) Phase() Phase {
	switch {
	case s.GameOver:
		return PhaseGameOver
	case s.RoundOver:
		return PhaseRoundOver
	}
	return PhasePlaying
}

// CardCount returns the number of cards held anywhere in the aggregate.
func (s *State) CardCount() int {
	n := len(s.Deck) + len(s.Discard)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

func (s *State) player(username string) *Player {
	for i := range s.Players {
		if s.Players[i].Username == username {
			return &s.Players[i]
		}
	}
	return nil
}

func (s *State) current() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

func (s *State) openPending(kind PendingKind, initiator string) {
	s.PendingActionType = kind
	s.PendingActionInitiator = initiator
}

func (s *State) clearPending() {
	s.PendingActionType = ""
	s.PendingActionInitiator = ""
}

// Result reports the game outcome for archival.
func (s *State) Result() engine.Result {
	r := engine.Result{Over: s.GameOver, Winner: s.Winner}
	for _, p := range s.Players {
		r.Scores = append(r.Scores, engine.Score{Username: p.Username, Score: p.TotalScore})
	}
	return r
}
