// internal/game/engine_adapter.go
package game

import (
	"context"
	"math/rand/v2"

	"github.com/jason-s-yu/cardgames/engine"
	"github.com/jason-s-yu/cardgames/engine/flipseven"
	"github.com/jason-s-yu/cardgames/engine/skullking"
	"github.com/jason-s-yu/cardgames/engine/uno"
	"github.com/jason-s-yu/cardgames/internal/cache"
	"github.com/jason-s-yu/cardgames/internal/models"
)

// Rules is the pure half of a variant: a state machine over its own aggregate
// type S. Apply reports false for an illegal move and must not touch s in
// that case.
type Rules[S any] interface {
	Setup(players []string, rng *rand.Rand) *S
	Apply(s *S, m engine.Move, rng *rand.Rand) bool
	View(s *S) any
	Result(s *S) engine.Result
}

// Engine is the variant-erased contract the dispatcher routes to.
type Engine interface {
	Variant() models.Variant
	Initialize(ctx context.Context, sessionID string) error
	HandleAction(ctx context.Context, a models.Action) error
}

// Store persists versioned aggregates. Save must fail with
// cache.ErrVersionConflict when the stored version differs from expected.
type Store interface {
	Load(ctx context.Context, sessionID string) (cache.Snapshot, error)
	Save(ctx context.Context, sessionID string, snap cache.Snapshot, expected int64) error
}

// Broadcaster fans a message out to every subscriber of a session topic.
type Broadcaster interface {
	Publish(ctx context.Context, sessionID, topic string, msg []byte) error
}

// Roster lists the connected players of a session.
type Roster interface {
	Players(ctx context.Context, sessionID string) ([]string, error)
}

// Journal records accepted actions.
type Journal interface {
	PublishGameAction(ctx context.Context, rec cache.GameActionRecord) error
}

// Archive keeps the summary of finished sessions.
type Archive interface {
	StoreFinalGameState(ctx context.Context, summary models.GameSummary) error
}

// Deps are the collaborators shared by every table. Journal, Archive and
// Seed are optional.
type Deps struct {
	Store       Store
	Broadcaster Broadcaster
	Roster      Roster
	Journal     Journal
	Archive     Archive
	Seed        func() uint64
}

// NewEngines returns one table per registered variant.
func NewEngines(deps Deps) []Engine {
	return []Engine{
		NewTable[flipseven.State](models.VariantFlipSeven, flipseven.Rules{}, deps),
		NewTable[skullking.State](models.VariantSkullKing, skullking.Rules{}, deps),
		NewTable[uno.State](models.VariantUno, uno.Rules{}, deps),
	}
}
