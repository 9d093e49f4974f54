package skullking

import "github.com/jason-s-yu/cardgames/engine"

// MaxRounds is the number of rounds in a game. Round n deals n cards.
const MaxRounds = 10

// Action kinds.
const (
	ActionPlaceBid          = "PLACE_BID"
	ActionPlayCard          = "PLAY_CARD"
	ActionReady             = "READY_FOR_NEXT_ROUND"
	ActionForceAdvanceRound = "FORCE_ADVANCE_ROUND"
)

var aliases = map[string]string{
	"BID":          ActionPlaceBid,
	"PLAYER_READY": ActionReady,
	"NEXT_ROUND":   ActionForceAdvanceRound,
}

// Phase is the round state.
type Phase string

const (
	PhaseBidding   Phase = "BIDDING"
	PhasePlaying   Phase = "PLAYING"
	PhaseTrickOver Phase = "TRICK_OVER"
	PhaseRoundOver Phase = "ROUND_OVER"
	PhaseGameOver  Phase = "GAME_OVER"
)

type Player struct {
	Username    string `json:"username"`
	Hand        []Card `json:"hand"`
	Bid         *int   `json:"bid"`
	TricksWon   int    `json:"tricksWon"`
	Score       int    `json:"score"`
	RoundPoints int    `json:"roundPoints"`
	CardPlayed  *Card  `json:"cardPlayed"`
}

// State is the full aggregate for one Skull King session. Cards from cleared
// tricks collect in Discard until the next deal.
type State struct {
	Deck               []Card   `json:"deck"`
	Discard            []Card   `json:"discard"`
	Players            []Player `json:"players"`
	CurrentPlayerIndex int      `json:"currentPlayerIndex"`
	RoundNumber        int      `json:"roundNumber"`
	Phase              Phase    `json:"phase"`
	TrickStarterIndex  int      `json:"trickStarterIndex"`
	Winner             string   `json:"winner,omitempty"`
	TrickWinner        string   `json:"trickWinner,omitempty"`
	ReadyPlayers       []string `json:"readyPlayers"`
}

func (s *State) player(username string) *Player {
	for i := range s.Players {
		if s.Players[i].Username == username {
			return &s.Players[i]
		}
	}
	return nil
}

// CardCount returns the number of cards held anywhere in the aggregate,
// including cards face up in the current trick.
func (s *State) CardCount() int {
	n := len(s.Deck) + len(s.Discard)
	for _, p := range s.Players {
		n += len(p.Hand)
		if p.CardPlayed != nil {
			n++
		}
	}
	return n
}

// Result reports the game outcome for archival.
func (s *State) Result() engine.Result {
	r := engine.Result{Over: s.Phase == PhaseGameOver, Winner: s.Winner}
	for _, p := range s.Players {
		r.Scores = append(r.Scores, engine.Score{Username: p.Username, Score: p.Score})
	}
	return r
}
