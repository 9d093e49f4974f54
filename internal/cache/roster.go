// internal/cache/roster.go
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisRoster reads lobby membership from the set lobby:players:<id>.
// Membership itself is maintained by the lobby service; Join and Leave exist
// for the socket handler and for tests.
type RedisRoster struct {
	rdb *redis.Client
}

func NewRedisRoster(rdb *redis.Client) *RedisRoster {
	return &RedisRoster{rdb: rdb}
}

// Players returns the connected usernames in sorted order.
func (r *RedisRoster) Players(ctx context.Context, sessionID string) ([]string, error) {
	names, err := r.rdb.SMembers(ctx, rosterKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: roster %s: %w", sessionID, err)
	}
	sort.Strings(names)
	return names, nil
}

func (r *RedisRoster) Join(ctx context.Context, sessionID, username string) error {
	return r.rdb.SAdd(ctx, rosterKey(sessionID), username).Err()
}

func (r *RedisRoster) Leave(ctx context.Context, sessionID, username string) error {
	return r.rdb.SRem(ctx, rosterKey(sessionID), username).Err()
}

// MemoryRoster is an in-process roster.
type MemoryRoster struct {
	mu      sync.Mutex
	members map[string]map[string]struct{}
}

func NewMemoryRoster() *MemoryRoster {
	return &MemoryRoster{members: make(map[string]map[string]struct{})}
}

func (r *MemoryRoster) Players(_ context.Context, sessionID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.members[sessionID]))
	for n := range r.members[sessionID] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (r *MemoryRoster) Join(_ context.Context, sessionID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[sessionID] == nil {
		r.members[sessionID] = make(map[string]struct{})
	}
	r.members[sessionID][username] = struct{}{}
	return nil
}

func (r *MemoryRoster) Leave(_ context.Context, sessionID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[sessionID], username)
	return nil
}
