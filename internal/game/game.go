// internal/game/game.go
package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cardgames/engine"
	"github.com/jason-s-yu/cardgames/internal/cache"
	"github.com/jason-s-yu/cardgames/internal/models"
)

// TopicGame is the broadcast topic carrying state updates.
const TopicGame = "game"

const (
	maxSaveAttempts = 5
	sideEffectWait  = 2 * time.Second
)

// Table runs one variant against the shared store. Every action is applied
// to a freshly decoded copy of the aggregate and only that copy is saved, so
// a rejected or failed action never leaves a partial write behind.
type Table[S any] struct {
	variant models.Variant
	rules   Rules[S]
	deps    Deps
}

// NewTable binds rules to the shared collaborators.
func NewTable[S any](variant models.Variant, rules Rules[S], deps Deps) *Table[S] {
	if deps.Seed == nil {
		deps.Seed = engine.TimeSeed
	}
	return &Table[S]{variant: variant, rules: rules, deps: deps}
}

// Variant implements Engine.
func (t *Table[S]) Variant() models.Variant { return t.variant }

// Initialize deals a new game to the session's connected players and
// publishes the opening view. An empty roster is a no-op. An existing
// aggregate for the session is replaced.
func (t *Table[S]) Initialize(ctx context.Context, sessionID string) error {
	logger := log.WithFields(log.Fields{"session": sessionID, "variant": t.variant})

	players, err := t.deps.Roster.Players(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("game: roster for %s: %w", sessionID, err)
	}
	if len(players) == 0 {
		logger.Debug("No connected players, not starting.")
		return nil
	}

	state := t.rules.Setup(players, engine.NewRand(t.deps.Seed()))
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("game: encode %s: %w", sessionID, err)
	}

	var snap cache.Snapshot
	for attempt := 1; ; attempt++ {
		expected := int64(0)
		prev, err := t.deps.Store.Load(ctx, sessionID)
		switch {
		case err == nil:
			expected = prev.Version
		case !errors.Is(err, cache.ErrNotFound):
			return fmt.Errorf("game: load %s: %w", sessionID, err)
		}

		snap = cache.Snapshot{Variant: t.variant, Version: expected + 1, State: raw}
		err = t.deps.Store.Save(ctx, sessionID, snap, expected)
		if err == nil {
			break
		}
		if !errors.Is(err, cache.ErrVersionConflict) || attempt >= maxSaveAttempts {
			return fmt.Errorf("game: save %s: %w", sessionID, err)
		}
	}

	logger.WithField("players", len(players)).Info("Game started.")
	t.publish(ctx, sessionID, snap.Version, state)
	return nil
}

// HandleAction applies one action. Unknown sessions and illegal actions are
// dropped without error; store failures abort with the persisted state
// untouched.
func (t *Table[S]) HandleAction(ctx context.Context, a models.Action) error {
	kind := a.Kind()
	logger := log.WithFields(log.Fields{
		"session": a.SessionID,
		"variant": t.variant,
		"sender":  a.Sender,
		"action":  kind,
	})

	if engine.IsResync(kind) {
		return t.Resync(ctx, a.SessionID)
	}

	move := engine.NewMove(a.Sender, kind, a.Payload)
	for attempt := 1; ; attempt++ {
		err := t.apply(ctx, a.SessionID, move, logger)
		if errors.Is(err, cache.ErrVersionConflict) && attempt < maxSaveAttempts {
			logger.WithField("attempt", attempt).Debug("Version conflict, retrying.")
			continue
		}
		if err != nil {
			logger.WithError(err).Error("Action aborted.")
		}
		return err
	}
}

// apply runs one load, apply, save round. It returns cache.ErrVersionConflict
// unwrapped so the caller can retry.
func (t *Table[S]) apply(ctx context.Context, sessionID string, move engine.Move, logger *log.Entry) error {
	snap, state, err := t.load(ctx, sessionID)
	if errors.Is(err, cache.ErrNotFound) {
		logger.Debug("Action for unknown session dropped.")
		return nil
	}
	if err != nil {
		return err
	}

	wasOver := t.rules.Result(state).Over
	if !t.rules.Apply(state, move, engine.NewRand(t.deps.Seed())) {
		logger.Debug("Illegal action dropped.")
		return nil
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("game: encode %s: %w", sessionID, err)
	}
	next := cache.Snapshot{Variant: t.variant, Version: snap.Version + 1, State: raw}
	if err := t.deps.Store.Save(ctx, sessionID, next, snap.Version); err != nil {
		if errors.Is(err, cache.ErrVersionConflict) {
			return err
		}
		return fmt.Errorf("game: save %s: %w", sessionID, err)
	}

	t.logAction(ctx, sessionID, next.Version, move)
	t.publish(ctx, sessionID, next.Version, state)

	if res := t.rules.Result(state); res.Over && !wasOver {
		t.finish(ctx, sessionID, next.Version, raw, res)
	}
	return nil
}

func (t *Table[S]) load(ctx context.Context, sessionID string) (cache.Snapshot, *S, error) {
	snap, err := t.deps.Store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return snap, nil, err
		}
		return snap, nil, fmt.Errorf("game: load %s: %w", sessionID, err)
	}
	if snap.Variant != "" && snap.Variant != t.variant {
		return snap, nil, fmt.Errorf("game: session %s holds %s, not %s", sessionID, snap.Variant, t.variant)
	}
	state := new(S)
	if err := json.Unmarshal(snap.State, state); err != nil {
		return snap, nil, fmt.Errorf("game: decode %s: %w", sessionID, err)
	}
	return snap, state, nil
}

// logAction appends the accepted action to the journal, if one is wired.
func (t *Table[S]) logAction(ctx context.Context, sessionID string, version int64, move engine.Move) {
	if t.deps.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectWait)
	defer cancel()

	rec := cache.GameActionRecord{
		SessionID:     sessionID,
		ActionIndex:   version,
		Actor:         move.Sender,
		ActionType:    move.Kind,
		ActionPayload: move.Payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	if err := t.deps.Journal.PublishGameAction(ctx, rec); err != nil {
		log.WithField("session", sessionID).WithError(err).Warn("Failed to journal action.")
	}
}

// finish archives the terminal aggregate and announces the end of the game.
func (t *Table[S]) finish(ctx context.Context, sessionID string, version int64, raw json.RawMessage, res engine.Result) {
	logger := log.WithFields(log.Fields{"session": sessionID, "variant": t.variant, "winner": res.Winner})
	logger.Info("Game over.")

	if t.deps.Archive != nil {
		scores, err := json.Marshal(res.Scores)
		if err != nil {
			logger.WithError(err).Error("Failed to encode final scores.")
		} else {
			actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectWait)
			err = t.deps.Archive.StoreFinalGameState(actx, models.GameSummary{
				SessionID:  sessionID,
				Variant:    t.variant,
				Winner:     res.Winner,
				Scores:     scores,
				FinalState: raw,
				FinishedAt: time.Now().UTC(),
			})
			cancel()
			if err != nil {
				logger.WithError(err).Error("Failed to archive finished game.")
			}
		}
	}

	t.send(ctx, sessionID, models.GameEvent{
		Type:      models.EventGameEnd,
		SessionID: sessionID,
		Variant:   t.variant,
		Version:   version,
		GameState: res,
	})
}
