// internal/game/dispatcher.go
package game

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cardgames/internal/models"
)

// ErrUnknownVariant is returned when no engine is registered for a variant.
var ErrUnknownVariant = errors.New("game: unknown variant")

// Dispatcher routes actions to the engine registered for their variant.
type Dispatcher struct {
	engines map[models.Variant]Engine
}

// NewDispatcher registers engines by their variant. A later engine replaces
// an earlier one with the same variant.
func NewDispatcher(engines ...Engine) *Dispatcher {
	d := &Dispatcher{engines: make(map[models.Variant]Engine, len(engines))}
	for _, e := range engines {
		d.engines[e.Variant()] = e
	}
	return d
}

// Lookup resolves a variant id. An empty id resolves only when exactly one
// engine is registered; that fallback is kept for old clients that never
// sent a variant.
func (d *Dispatcher) Lookup(v models.Variant) (Engine, error) {
	if v == "" {
		if len(d.engines) == 1 {
			for _, e := range d.engines {
				log.WithField("variant", e.Variant()).Warn("Action without a variant routed to the only registered engine.")
				return e, nil
			}
		}
		return nil, fmt.Errorf("%w: none given", ErrUnknownVariant)
	}
	e, ok := d.engines[models.ParseVariant(string(v))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	return e, nil
}

// Initialize starts a session under the given variant.
func (d *Dispatcher) Initialize(ctx context.Context, sessionID string, v models.Variant) error {
	e, err := d.Lookup(v)
	if err != nil {
		return err
	}
	return e.Initialize(ctx, sessionID)
}

// HandleAction routes a to its engine. Actions for unknown variants are
// dropped like any other illegal action.
func (d *Dispatcher) HandleAction(ctx context.Context, a models.Action) error {
	e, err := d.Lookup(a.Variant)
	if err != nil {
		log.WithFields(log.Fields{
			"session": a.SessionID,
			"sender":  a.Sender,
			"variant": a.Variant,
		}).Debug("Action for unknown variant dropped.")
		return nil
	}
	return e.HandleAction(ctx, a)
}
