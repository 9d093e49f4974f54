// internal/game/hub.go
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cardgames/internal/models"
)

// ErrHubClosed is returned for work submitted after Close.
var ErrHubClosed = errors.New("game: hub closed")

// Handler is what the hub serializes per session. *Dispatcher implements it.
type Handler interface {
	Initialize(ctx context.Context, sessionID string, v models.Variant) error
	HandleAction(ctx context.Context, a models.Action) error
}

const (
	mailboxSize        = 32
	defaultIdleTimeout = 5 * time.Minute
)

// Hub runs one goroutine per live session. Work for a session is processed
// strictly in arrival order; sessions never wait on each other. The hub lock
// only guards the session map, never the work itself.
type Hub struct {
	handler Handler
	idle    time.Duration

	mu     sync.Mutex
	actors map[string]*actor
	closed bool

	quit chan struct{}
	wg   sync.WaitGroup
}

type actor struct {
	sessionID string
	inbox     chan job
	pending   int           // guarded by Hub.mu
	wake      chan struct{} // signalled on every release
}

type job struct {
	ctx  context.Context
	run  func(context.Context) error
	done chan error // nil for fire-and-forget work
}

// NewHub returns a hub that reaps a session's goroutine after idle without
// work. A non-positive idle uses five minutes.
func NewHub(handler Handler, idle time.Duration) *Hub {
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &Hub{
		handler: handler,
		idle:    idle,
		actors:  make(map[string]*actor),
		quit:    make(chan struct{}),
	}
}

// Submit queues an action and returns without waiting for it.
func (h *Hub) Submit(ctx context.Context, a models.Action) error {
	return h.enqueue(ctx, a.SessionID, func(ctx context.Context) error {
		return h.handler.HandleAction(ctx, a)
	}, false)
}

// Handle queues an action and waits for it to be processed.
func (h *Hub) Handle(ctx context.Context, a models.Action) error {
	return h.enqueue(ctx, a.SessionID, func(ctx context.Context) error {
		return h.handler.HandleAction(ctx, a)
	}, true)
}

// Initialize starts a session in line with any queued actions for it.
func (h *Hub) Initialize(ctx context.Context, sessionID string, v models.Variant) error {
	return h.enqueue(ctx, sessionID, func(ctx context.Context) error {
		return h.handler.Initialize(ctx, sessionID, v)
	}, true)
}

// Active returns the number of sessions with a live goroutine.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.actors)
}

// Close stops accepting work, lets every session finish what is already
// queued, and waits for the goroutines to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.quit)
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hub) enqueue(ctx context.Context, sessionID string, run func(context.Context) error, wait bool) error {
	a, err := h.acquire(sessionID)
	if err != nil {
		return err
	}

	// Queued work outlives the caller's cancellation.
	j := job{ctx: context.WithoutCancel(ctx), run: run}
	if wait {
		j.done = make(chan error, 1)
	}

	select {
	case a.inbox <- j:
	case <-h.quit:
		h.release(a)
		return ErrHubClosed
	case <-ctx.Done():
		h.release(a)
		return ctx.Err()
	}

	if !wait {
		return nil
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// acquire returns the session's actor, starting it if needed, and counts the
// caller as pending so the actor is not reaped underneath it.
func (h *Hub) acquire(sessionID string) (*actor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	a, ok := h.actors[sessionID]
	if !ok {
		a = &actor{sessionID: sessionID, inbox: make(chan job, mailboxSize), wake: make(chan struct{}, 1)}
		h.actors[sessionID] = a
		h.wg.Add(1)
		go h.loop(a)
	}
	a.pending++
	return a, nil
}

func (h *Hub) release(a *actor) {
	h.mu.Lock()
	a.pending--
	h.mu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (h *Hub) loop(a *actor) {
	defer h.wg.Done()
	logger := log.WithField("session", a.sessionID)

	timer := time.NewTimer(h.idle)
	defer timer.Stop()

	for {
		select {
		case j := <-a.inbox:
			h.process(a, j, logger)
			timer.Reset(h.idle)

		case <-timer.C:
			h.mu.Lock()
			if a.pending == 0 {
				delete(h.actors, a.sessionID)
				h.mu.Unlock()
				logger.Debug("Session idle, actor stopped.")
				return
			}
			h.mu.Unlock()
			timer.Reset(h.idle)

		case <-h.quit:
			h.drain(a, logger)
			return
		}
	}
}

// drain runs what is left in the inbox after Close. A caller that acquired
// the actor before Close may still be sending, so the actor only exits once
// nothing is queued and nobody is pending.
func (h *Hub) drain(a *actor, logger *log.Entry) {
	for {
		select {
		case j := <-a.inbox:
			h.process(a, j, logger)
			continue
		default:
		}

		h.mu.Lock()
		if a.pending == 0 {
			delete(h.actors, a.sessionID)
			h.mu.Unlock()
			return
		}
		h.mu.Unlock()

		select {
		case j := <-a.inbox:
			h.process(a, j, logger)
		case <-a.wake:
		}
	}
}

func (h *Hub) process(a *actor, j job, logger *log.Entry) {
	err := j.run(j.ctx)
	h.release(a)
	if j.done != nil {
		j.done <- err
		return
	}
	if err != nil {
		logger.WithError(err).Warn("Queued action failed.")
	}
}
