// internal/game/sync_state.go
package game

import (
	"context"
	"encoding/json"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cardgames/internal/cache"
	"github.com/jason-s-yu/cardgames/internal/models"
)

// Resync republishes the stored view without touching the aggregate.
func (t *Table[S]) Resync(ctx context.Context, sessionID string) error {
	snap, state, err := t.load(ctx, sessionID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	t.publish(ctx, sessionID, snap.Version, state)
	return nil
}

// publish sends the sanitized view. The aggregate is already saved, so a
// failed publish is logged and left for the next resync.
func (t *Table[S]) publish(ctx context.Context, sessionID string, version int64, state *S) {
	t.send(ctx, sessionID, models.GameEvent{
		Type:      models.EventGameUpdate,
		SessionID: sessionID,
		Variant:   t.variant,
		Version:   version,
		GameState: t.rules.View(state),
	})
}

func (t *Table[S]) send(ctx context.Context, sessionID string, ev models.GameEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.WithField("session", sessionID).WithError(err).Error("Failed to encode game event.")
		return
	}
	if err := t.deps.Broadcaster.Publish(ctx, sessionID, TopicGame, msg); err != nil {
		log.WithField("session", sessionID).WithError(err).Error("Failed to publish game event.")
	}
}
