package uno

// View is the state as broadcast to every subscriber. The draw pile is
// reduced to its size.
type View struct {
	Players                  []Player `json:"players"`
	DiscardPile              []Card   `json:"discardPile"`
	CurrentTopCard           *Card    `json:"currentTopCard"`
	CurrentColor             Color    `json:"currentColor"`
	CurrentPlayerIndex       int      `json:"currentPlayerIndex"`
	Direction                int      `json:"direction"`
	DeckCount                int      `json:"deckCount"`
	WaitingForColorSelection bool     `json:"waitingForColorSelection"`
	PendingActionInitiator   string   `json:"pendingActionInitiator,omitempty"`
	GameOver                 bool     `json:"gameOver"`
	Winner                   string   `json:"winner,omitempty"`
}

func NewView(s *State) View {
	v := View{
		Players:                  s.Players,
		DiscardPile:              s.DiscardPile,
		CurrentColor:             s.CurrentColor,
		CurrentPlayerIndex:       s.CurrentPlayerIndex,
		Direction:                s.Direction,
		DeckCount:                len(s.Deck),
		WaitingForColorSelection: s.WaitingForColorSelection,
		PendingActionInitiator:   s.PendingActionInitiator,
		GameOver:                 s.GameOver,
		Winner:                   s.Winner,
	}
	if top, ok := s.Top(); ok {
		v.CurrentTopCard = &top
	}
	return v
}
