package flipseven

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/cardgames/engine"
)

// table builds a mid-round state with the given players holding empty hands
// and deck as the draw pile.
func table(deck []Card, names ...string) *State {
	s := &State{Deck: deck, Discard: []Card{}, ReadyPlayers: []string{}, Round: 1}
	for _, n := range names {
		s.Players = append(s.Players, Player{Username: n, Hand: []Card{}, RoundActive: true})
	}
	return s
}

func move(sender, kind string, payload map[string]any) engine.Move {
	return engine.NewMove(sender, kind, payload)
}

func target(name string) map[string]any {
	return map[string]any{"target": name}
}

func snapshot(t *testing.T, s *State) string {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return string(b)
}

// TestEndToEndTwoPlayers walks the forced [10,5,10] deck.
func TestEndToEndTwoPlayers(t *testing.T) {
	var r Rules
	s := table([]Card{num(10), num(5), num(10)}, "p1", "p2")
	rng := engine.NewRand(1)

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), rng))
	assert.Len(t, s.Players[0].Hand, 1)
	assert.Equal(t, 10, s.Players[0].RoundScore)
	assert.Equal(t, 1, s.CurrentPlayerIndex)

	require.True(t, r.Apply(s, move("p2", "DRAW", nil), rng))
	assert.Equal(t, 5, s.Players[1].RoundScore)
	assert.Equal(t, 0, s.CurrentPlayerIndex)

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), rng))
	assert.Equal(t, 0, s.Players[0].RoundScore)
	assert.False(t, s.Players[0].RoundActive)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	assert.False(t, s.RoundOver)

	require.True(t, r.Apply(s, move("p2", "STAY", nil), rng))
	assert.True(t, s.RoundOver)
	assert.Equal(t, PhaseRoundOver, s.Phase())
	assert.Equal(t, 5, s.Players[1].TotalScore)
	assert.Equal(t, 0, s.Players[0].TotalScore)
}

// TestHitAlias verifies the legacy HIT spelling draws.
func TestHitAlias(t *testing.T) {
	var r Rules
	s := table([]Card{num(4)}, "p1", "p2")
	require.True(t, r.Apply(s, move("p1", "HIT", nil), nil))
	assert.Len(t, s.Players[0].Hand, 1)
}

// TestOutOfTurnIgnored verifies a non-cursor player never mutates state.
func TestOutOfTurnIgnored(t *testing.T) {
	var r Rules
	s := table([]Card{num(4), num(6)}, "p1", "p2")
	before := snapshot(t, s)

	assert.False(t, r.Apply(s, move("p2", "DRAW", nil), nil))
	assert.False(t, r.Apply(s, move("p2", "STAY", nil), nil))
	assert.False(t, r.Apply(s, move("ghost", "DRAW", nil), nil))
	assert.False(t, r.Apply(s, move("p1", "SELECT_TARGET", target("p2")), nil))
	assert.False(t, r.Apply(s, move("p1", "READY_FOR_NEXT_ROUND", nil), nil))
	assert.False(t, r.Apply(s, move("p1", "DANCE", nil), nil))
	assert.Equal(t, before, snapshot(t, s))
}

// TestEmptyDeckDrawIgnored verifies a draw from an empty pile is dropped.
func TestEmptyDeckDrawIgnored(t *testing.T) {
	var r Rules
	s := table(nil, "p1", "p2")
	assert.False(t, r.Apply(s, move("p1", "DRAW", nil), nil))
	assert.Equal(t, 0, s.CurrentPlayerIndex)
}

// TestFreezeSelection verifies the frozen player banks their score.
func TestFreezeSelection(t *testing.T) {
	var r Rules
	s := table([]Card{action(TypeFreeze)}, "p1", "p2")
	s.Players[1].Hand = []Card{num(7)}
	s.Players[1].RoundScore = 7

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), nil))
	assert.Equal(t, PendingFreeze, s.PendingActionType)
	assert.Equal(t, "p1", s.PendingActionInitiator)
	assert.Equal(t, 0, s.CurrentPlayerIndex)

	assert.False(t, r.Apply(s, move("p1", "STAY", nil), nil), "pending blocks ordinary play")
	assert.False(t, r.Apply(s, move("p2", "SELECT_TARGET", target("p1")), nil), "only the initiator selects")
	assert.False(t, r.Apply(s, move("p1", "SELECT_TARGET", target("nobody")), nil))

	require.True(t, r.Apply(s, move("p1", "selectTarget", target("p2")), nil))
	assert.Empty(t, s.PendingActionType)
	assert.Empty(t, s.PendingActionInitiator)
	assert.False(t, s.Players[1].RoundActive)
	assert.Equal(t, 7, s.Players[1].TotalScore)
	assert.Equal(t, 7, s.Players[1].LastRoundScore)
	assert.True(t, s.Players[0].Hand[0].NoEffect)
	assert.Equal(t, 0, s.CurrentPlayerIndex)
	assert.Empty(t, s.PendingActionType, "a spent opening card does not reopen a selection")
}

// TestFlip3CascadeQueuesActions verifies cards drawn during a forced cascade
// are resolved by the target once the draws finish.
func TestFlip3CascadeQueuesActions(t *testing.T) {
	var r Rules
	s := table([]Card{action(TypeFlip3), num(3), action(TypeFreeze), num(4), num(9)}, "p1", "p2")
	s.Players[1].Hand = []Card{num(7)}
	s.Players[1].RoundScore = 7

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), nil))
	require.Equal(t, PendingFlip3, s.PendingActionType)

	require.True(t, r.Apply(s, move("p1", "SELECT_TARGET", target("p2")), nil))
	assert.Len(t, s.Players[1].Hand, 4)
	assert.Equal(t, 14, s.Players[1].RoundScore)
	assert.Equal(t, 0, s.Flip3DrawsRemaining)
	assert.Equal(t, PendingFreeze, s.PendingActionType)
	assert.Equal(t, "p2", s.PendingActionInitiator)
	assert.Len(t, s.Deck, 1)

	assert.False(t, r.Apply(s, move("p1", "SELECT_TARGET", target("p2")), nil))
	require.True(t, r.Apply(s, move("p2", "SELECT_TARGET", target("p1")), nil))
	assert.False(t, s.Players[0].RoundActive)
	assert.True(t, s.Players[1].Hand[2].NoEffect)
	assert.Empty(t, s.Flip3ActiveTarget)
	assert.Empty(t, s.PendingActionQueue)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

// TestFlip3Bust verifies a bust inside a cascade ends it and moves on.
func TestFlip3Bust(t *testing.T) {
	var r Rules
	s := table([]Card{action(TypeFlip3), num(7), num(2), num(3)}, "p1", "p2")
	s.Players[1].Hand = []Card{num(7)}

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), nil))
	require.True(t, r.Apply(s, move("p1", "SELECT_TARGET", target("p2")), nil))

	assert.False(t, s.Players[1].RoundActive)
	assert.Equal(t, 0, s.Players[1].RoundScore)
	assert.Equal(t, 0, s.Flip3DrawsRemaining)
	assert.Empty(t, s.Flip3ActiveTarget)
	assert.Len(t, s.Deck, 2)
	assert.Equal(t, 0, s.CurrentPlayerIndex)
}

// TestFlip3SecondChanceAbsorbsBust verifies the token is consumed and the
// cascade keeps drawing.
func TestFlip3SecondChanceAbsorbsBust(t *testing.T) {
	var r Rules
	s := table([]Card{action(TypeFlip3), num(7), num(2), num(3)}, "p1", "p2")
	s.Players[1].Hand = []Card{num(7)}
	s.Players[1].HasSecondChance = true

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), nil))
	require.True(t, r.Apply(s, move("p1", "SELECT_TARGET", target("p2")), nil))

	p2 := s.Players[1]
	assert.True(t, p2.RoundActive)
	assert.False(t, p2.HasSecondChance)
	assert.Len(t, p2.Hand, 4)
	assert.True(t, p2.Hand[1].NoEffect)
	assert.Equal(t, 12, p2.RoundScore)
	assert.Empty(t, s.Deck)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

// TestFlip3SurplusSecondChanceSuspends verifies a surplus token drawn in a
// cascade pauses it until the target gives the token away.
func TestFlip3SurplusSecondChanceSuspends(t *testing.T) {
	var r Rules
	s := table([]Card{action(TypeFlip3), action(TypeSecondChance), num(2), num(3)}, "p1", "p2", "p3")
	s.Players[1].Hand = []Card{num(7)}
	s.Players[1].HasSecondChance = true

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), nil))
	require.True(t, r.Apply(s, move("p1", "SELECT_TARGET", target("p2")), nil))
	assert.Equal(t, PendingGiveSecondChance, s.PendingActionType)
	assert.Equal(t, "p2", s.PendingActionInitiator)
	assert.Equal(t, 2, s.Flip3DrawsRemaining)

	require.True(t, r.Apply(s, move("p2", "SELECT_TARGET", target("p3")), nil))
	assert.True(t, s.Players[2].HasSecondChance)
	assert.Len(t, s.Players[1].Hand, 4)
	assert.Equal(t, 0, s.Flip3DrawsRemaining)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

// TestSecondChanceSavesBust verifies a bust on a normal draw burns the token
// and neutralizes the duplicate.
func TestSecondChanceSavesBust(t *testing.T) {
	var r Rules
	s := table([]Card{num(5)}, "p1", "p2")
	s.Players[0].Hand = []Card{num(5)}
	s.Players[0].HasSecondChance = true

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), nil))
	p1 := s.Players[0]
	assert.True(t, p1.RoundActive)
	assert.False(t, p1.HasSecondChance)
	assert.True(t, p1.Hand[1].NoEffect)
	assert.False(t, IsBust(p1.Hand))
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

// TestSurplusSecondChanceMustBeGiven verifies a second token opens a gift.
func TestSurplusSecondChanceMustBeGiven(t *testing.T) {
	var r Rules
	s := table([]Card{action(TypeSecondChance)}, "p1", "p2")
	s.Players[0].HasSecondChance = true

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), nil))
	assert.Equal(t, PendingGiveSecondChance, s.PendingActionType)
	assert.Equal(t, 0, s.CurrentPlayerIndex)

	require.True(t, r.Apply(s, move("p1", "SELECT_TARGET", target("p2")), nil))
	assert.True(t, s.Players[1].HasSecondChance)
	assert.True(t, s.Players[0].HasSecondChance)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

// TestSelectInactiveTargetIgnored verifies only active players are targets.
func TestSelectInactiveTargetIgnored(t *testing.T) {
	var r Rules
	s := table([]Card{action(TypeFreeze)}, "p1", "p2", "p3")
	s.Players[1].RoundActive = false

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), nil))
	before := snapshot(t, s)
	assert.False(t, r.Apply(s, move("p1", "SELECT_TARGET", target("p2")), nil))
	assert.False(t, r.Apply(s, move("p1", "SELECT_TARGET", nil), nil))
	assert.Equal(t, before, snapshot(t, s))
}

// TestFlipSevenBonus verifies seven distinct numbers bank the bonus.
func TestFlipSevenBonus(t *testing.T) {
	var r Rules
	s := table([]Card{num(7)}, "p1", "p2")
	for v := 1; v <= 6; v++ {
		s.Players[0].Hand = append(s.Players[0].Hand, num(v))
	}

	require.True(t, r.Apply(s, move("p1", "DRAW", nil), nil))
	assert.False(t, s.Players[0].RoundActive)
	assert.Equal(t, 28+FlipSevenBonus, s.Players[0].TotalScore)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
}

// TestWinnerAtThreshold verifies the game ends when a round closes with a
// player at or above the winning score.
func TestWinnerAtThreshold(t *testing.T) {
	var r Rules
	s := table([]Card{num(1)}, "p1", "p2")
	s.Players[0].TotalScore = 195
	s.Players[0].RoundScore = 10
	s.Players[1].TotalScore = 150
	s.Players[1].RoundActive = false

	require.True(t, r.Apply(s, move("p1", "STAY", nil), nil))
	assert.True(t, s.GameOver)
	assert.Equal(t, "p1", s.Winner)
	assert.Equal(t, PhaseGameOver, s.Phase())

	res := r.Result(s)
	assert.True(t, res.Over)
	assert.Equal(t, []engine.Score{{Username: "p1", Score: 205}, {Username: "p2", Score: 150}}, res.Scores)

	assert.False(t, r.Apply(s, move("p1", "READY_FOR_NEXT_ROUND", nil), nil))
}

// TestReadyGate verifies a new round needs every player ready and rotates
// the starter.
func TestReadyGate(t *testing.T) {
	var r Rules
	rng := engine.NewRand(7)
	s := r.Setup([]string{"p1", "p2"}, rng)
	require.Equal(t, DeckSize, s.CardCount())
	assert.Equal(t, 1, s.Round)

	s.clearPending()
	s.RoundOver = true

	require.True(t, r.Apply(s, move("p1", "PLAYER_READY", nil), rng))
	assert.False(t, r.Apply(s, move("p1", "READY_FOR_NEXT_ROUND", nil), rng), "duplicate ready")
	assert.True(t, s.RoundOver)
	assert.False(t, r.Apply(s, move("ghost", "READY_FOR_NEXT_ROUND", nil), rng))

	require.True(t, r.Apply(s, move("p2", "readyForNextRound", nil), rng))
	assert.False(t, s.RoundOver)
	assert.Empty(t, s.ReadyPlayers)
	assert.Equal(t, 2, s.Round)
	assert.Equal(t, 1, s.RoundStarterIndex)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	for _, p := range s.Players {
		assert.Len(t, p.Hand, 1)
		assert.True(t, p.RoundActive)
	}
	assert.Len(t, s.Discard, 2)
	assert.Equal(t, DeckSize, s.CardCount())
}

func TestReadyRebuildsShortDeck(t *testing.T) {
	var r Rules
	rng := engine.NewRand(11)
	s := r.Setup([]string{"p1", "p2", "p3"}, rng)

	// Leave fewer than five cards per player in the draw pile.
	s.Discard = append(s.Discard, s.Deck[6:]...)
	s.Deck = s.Deck[:6]
	require.Equal(t, DeckSize, s.CardCount())
	s.clearPending()
	s.RoundOver = true

	for _, name := range []string{"p1", "p2", "p3"} {
		require.True(t, r.Apply(s, move(name, ActionReady, nil), rng))
	}

	assert.False(t, s.RoundOver)
	assert.Equal(t, 2, s.Round)
	assert.Len(t, s.Deck, DeckSize-3)
	assert.Empty(t, s.Discard)
	for _, p := range s.Players {
		assert.Len(t, p.Hand, 1)
	}
	assert.Equal(t, DeckSize, s.CardCount())
}

// TestRandomPlayInvariants drives random moves and checks the aggregate
// invariants after every one of them.
func TestRandomPlayInvariants(t *testing.T) {
	var r Rules
	names := []string{"a", "b", "c"}
	kinds := []string{ActionDraw, ActionDraw, ActionDraw, ActionStay, ActionSelectTarget, ActionReady}

	for seed := uint64(1); seed <= 20; seed++ {
		rng := engine.NewRand(seed)
		s := r.Setup(names, rng)
		for step := 0; step < 400 && !s.GameOver; step++ {
			m := move(names[rng.IntN(len(names))], kinds[rng.IntN(len(kinds))],
				target(names[rng.IntN(len(names))]))
			before := snapshot(t, s)
			if !r.Apply(s, m, rng) {
				require.Equal(t, before, snapshot(t, s), "rejected move mutated state")
				continue
			}
			require.Equal(t, DeckSize, s.CardCount(), "seed %d step %d", seed, step)
			require.Equal(t, s.PendingActionType == "", s.PendingActionInitiator == "")
			if !s.RoundOver && s.PendingActionType == "" {
				require.True(t, s.Players[s.CurrentPlayerIndex].RoundActive)
			}
		}
	}
}

// TestViewHidesDeck verifies the broadcast view carries only the deck size
// and is stable across repeated renders.
func TestViewHidesDeck(t *testing.T) {
	var r Rules
	s := r.Setup([]string{"p1", "p2"}, engine.NewRand(3))

	first, err := json.Marshal(r.View(s))
	require.NoError(t, err)
	second, err := json.Marshal(r.View(s))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(first, &fields))
	assert.NotContains(t, fields, "deck")
	assert.EqualValues(t, len(s.Deck), fields["deckCount"])
}
