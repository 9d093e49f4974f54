// internal/game/hub_test.go
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/cardgames/engine/skullking"
	"github.com/jason-s-yu/cardgames/internal/models"
)

// recordingHandler tracks how many actions run at once per session.
type recordingHandler struct {
	mu       sync.Mutex
	running  map[string]int
	maxSeen  map[string]int
	order    map[string][]int
	overall  int
	overlaps int
	delay    time.Duration
}

func newRecordingHandler(delay time.Duration) *recordingHandler {
	return &recordingHandler{
		running: make(map[string]int),
		maxSeen: make(map[string]int),
		order:   make(map[string][]int),
		delay:   delay,
	}
}

func (r *recordingHandler) Initialize(context.Context, string, models.Variant) error { return nil }

func (r *recordingHandler) HandleAction(_ context.Context, a models.Action) error {
	r.mu.Lock()
	r.running[a.SessionID]++
	r.overall++
	if r.overall > 1 {
		r.overlaps++
	}
	if r.running[a.SessionID] > r.maxSeen[a.SessionID] {
		r.maxSeen[a.SessionID] = r.running[a.SessionID]
	}
	if n, ok := a.Payload["n"].(int); ok {
		r.order[a.SessionID] = append(r.order[a.SessionID], n)
	}
	r.mu.Unlock()

	time.Sleep(r.delay)

	r.mu.Lock()
	r.running[a.SessionID]--
	r.overall--
	r.mu.Unlock()
	return nil
}

func TestHubSerializesPerSession(t *testing.T) {
	h := newRecordingHandler(2 * time.Millisecond)
	hub := NewHub(h, time.Minute)
	defer hub.Close()
	ctx := context.Background()

	const perSession = 20
	for i := 0; i < perSession; i++ {
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, hub.Submit(ctx, models.Action{SessionID: id, Payload: map[string]any{"n": i}}))
		}
	}
	// A waited call queues behind everything already submitted.
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, hub.Handle(ctx, models.Action{SessionID: id}))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, 1, h.maxSeen[id], "session %s ran actions concurrently", id)
		require.Len(t, h.order[id], perSession)
		for i, n := range h.order[id] {
			assert.Equal(t, i, n, "session %s out of order", id)
		}
	}
	assert.Positive(t, h.overlaps, "sessions should run in parallel")
}

func TestHubReapsIdleSessions(t *testing.T) {
	hub := NewHub(newRecordingHandler(0), 10*time.Millisecond)
	defer hub.Close()

	require.NoError(t, hub.Handle(context.Background(), models.Action{SessionID: "s1"}))
	assert.Eventually(t, func() bool { return hub.Active() == 0 }, time.Second, 5*time.Millisecond)

	// A reaped session comes back on the next action.
	require.NoError(t, hub.Handle(context.Background(), models.Action{SessionID: "s1"}))
}

func TestHubClose(t *testing.T) {
	h := newRecordingHandler(time.Millisecond)
	hub := NewHub(h, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, hub.Submit(ctx, models.Action{SessionID: "s1", Payload: map[string]any{"n": i}}))
	}
	hub.Close()
	hub.Close()

	h.mu.Lock()
	assert.Len(t, h.order["s1"], 5, "queued work drains on close")
	h.mu.Unlock()

	assert.ErrorIs(t, hub.Submit(ctx, models.Action{SessionID: "s1"}), ErrHubClosed)
	assert.ErrorIs(t, hub.Initialize(ctx, "s1", models.VariantUno), ErrHubClosed)
	assert.Zero(t, hub.Active())
}

// TestHubCloseWaitsForInFlightSend covers a caller that acquired the session
// before Close and delivers its job afterwards.
func TestHubCloseWaitsForInFlightSend(t *testing.T) {
	h := newRecordingHandler(0)
	hub := NewHub(h, time.Minute)

	a, err := hub.acquire("s1")
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		hub.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a send was still pending")
	case <-time.After(50 * time.Millisecond):
	}

	j := job{ctx: context.Background(), done: make(chan error, 1), run: func(ctx context.Context) error {
		return h.HandleAction(ctx, models.Action{SessionID: "s1", Payload: map[string]any{"n": 1}})
	}}
	a.inbox <- j
	require.NoError(t, <-j.done)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the pending send")
	}
	h.mu.Lock()
	assert.Equal(t, []int{1}, h.order["s1"])
	h.mu.Unlock()
	assert.Zero(t, hub.Active())
}

func TestHubCloseAfterAbandonedSend(t *testing.T) {
	hub := NewHub(newRecordingHandler(0), time.Minute)
	a, err := hub.acquire("s1")
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		hub.Close()
		close(closed)
	}()
	hub.release(a)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the caller gave up")
	}
}

func TestHubWithTablesKeepsEveryBid(t *testing.T) {
	td := newTestDeps()
	players := []string{"p1", "p2", "p3", "p4", "p5"}
	td.join(t, "s1", players...)
	hub := NewHub(NewDispatcher(NewEngines(td.Deps)...), time.Minute)
	defer hub.Close()
	ctx := context.Background()

	require.NoError(t, hub.Initialize(ctx, "s1", models.VariantSkullKing))

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			assert.NoError(t, hub.Handle(ctx, bid("s1", p, 1)))
		}(p)
	}
	wg.Wait()

	snap, err := td.store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1+len(players)), snap.Version)

	var st skullking.State
	require.NoError(t, json.Unmarshal(snap.State, &st))
	assert.Equal(t, skullking.PhasePlaying, st.Phase)
	for _, p := range st.Players {
		require.NotNil(t, p.Bid, fmt.Sprintf("bid lost for %s", p.Username))
	}
	assert.Len(t, td.pub.published("s1"), 1+len(players))
}
