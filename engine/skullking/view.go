package skullking

// View is the state as broadcast to every subscriber, minus the deck.
type View struct {
	Players            []Player `json:"players"`
	DeckCount          int      `json:"deckCount"`
	CurrentPlayerIndex int      `json:"currentPlayerIndex"`
	RoundNumber        int      `json:"roundNumber"`
	Phase              Phase    `json:"phase"`
	TrickStarterIndex  int      `json:"trickStarterIndex"`
	Winner             string   `json:"winner,omitempty"`
	TrickWinner        string   `json:"trickWinner,omitempty"`
	ReadyPlayers       []string `json:"readyPlayers"`
}

func NewView(s *State) View {
	return View{
		Players:            s.Players,
		DeckCount:          len(s.Deck),
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		RoundNumber:        s.RoundNumber,
		Phase:              s.Phase,
		TrickStarterIndex:  s.TrickStarterIndex,
		Winner:             s.Winner,
		TrickWinner:        s.TrickWinner,
		ReadyPlayers:       s.ReadyPlayers,
	}
}
