package flipseven

// View is the state as broadcast to every subscriber. The draw pile is
// reduced to its size; hands are sent in full.
type View struct {
	Players                []Player      `json:"players"`
	DeckCount              int           `json:"deckCount"`
	DiscardCount           int           `json:"discardCount"`
	CurrentPlayerIndex     int           `json:"currentPlayerIndex"`
	RoundStarterIndex      int           `json:"roundStarterIndex"`
	Round                  int           `json:"round"`
	Phase                  Phase         `json:"phase"`
	PendingActionType      PendingKind   `json:"pendingActionType,omitempty"`
	PendingActionInitiator string        `json:"pendingActionInitiator,omitempty"`
	PendingActionQueue     []PendingKind `json:"pendingActionQueue,omitempty"`
	Flip3DrawsRemaining    int           `json:"flip3DrawsRemaining"`
	Flip3ActiveTarget      string        `json:"flip3ActiveTarget,omitempty"`
	RoundOver              bool          `json:"isRoundOver"`
	ReadyPlayers           []string      `json:"readyPlayers"`
	Winner                 string        `json:"winner,omitempty"`
	GameOver               bool          `json:"isGameOver"`
}

// NewView builds the broadcast view of s.
func NewView(s *State) View {
	return View{
		Players:                s.Players,
		DeckCount:              len(s.Deck),
		DiscardCount:           len(s.Discard),
		CurrentPlayerIndex:     s.CurrentPlayerIndex,
		RoundStarterIndex:      s.RoundStarterIndex,
		Round:                  s.Round,
		Phase:                  s.Phase(),
		PendingActionType:      s.PendingActionType,
		PendingActionInitiator: s.PendingActionInitiator,
		PendingActionQueue:     s.PendingActionQueue,
		Flip3DrawsRemaining:    s.Flip3DrawsRemaining,
		Flip3ActiveTarget:      s.Flip3ActiveTarget,
		RoundOver:              s.RoundOver,
		ReadyPlayers:           s.ReadyPlayers,
		Winner:                 s.Winner,
		GameOver:               s.GameOver,
	}
}
