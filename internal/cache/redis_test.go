package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisClient connects to TEST_REDIS_ADDR or skips the test.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb, err := Connect(context.Background(), Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisStore(t *testing.T) {
	rdb := redisClient(t)
	ctx := context.Background()
	s := NewRedisStore(rdb, time.Minute)
	id := uuid.NewString()
	t.Cleanup(func() { _ = s.Delete(ctx, id) })

	_, err := s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, id, snap(1, `{"a":1}`), 0))
	assert.ErrorIs(t, s.Save(ctx, id, snap(2, `{"a":2}`), 0), ErrVersionConflict)
	require.NoError(t, s.Save(ctx, id, snap(2, `{"a":2}`), 1))

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.JSONEq(t, `{"a":2}`, string(got.State))

	ttl, err := rdb.TTL(ctx, stateKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisRosterAndJournal(t *testing.T) {
	rdb := redisClient(t)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, rosterKey(id), actionsKey(id)) })

	r := NewRedisRoster(rdb)
	require.NoError(t, r.Join(ctx, id, "b"))
	require.NoError(t, r.Join(ctx, id, "a"))
	names, err := r.Players(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	j := NewJournal(rdb, time.Minute)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, j.PublishGameAction(ctx, GameActionRecord{
			SessionID: id, ActionIndex: i, Actor: "a", ActionType: "DRAW", Timestamp: time.Now().UnixMilli(),
		}))
	}
	recs, err := j.Actions(ctx, id)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, int64(3), recs[2].ActionIndex)
}

func TestRedisBroadcaster(t *testing.T) {
	rdb := redisClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b := NewRedisBroadcaster(rdb)
	id := uuid.NewString()

	sub, err := b.Subscribe(ctx, id, "game")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, id, "game", []byte(`{"type":"GAME_UPDATE"}`)))
	select {
	case msg := <-sub.C:
		assert.JSONEq(t, `{"type":"GAME_UPDATE"}`, string(msg))
	case <-ctx.Done():
		t.Fatal("no message delivered")
	}
}
