// internal/cache/store.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jason-s-yu/cardgames/internal/models"
)

// anyVersion skips the version check on Save.
const anyVersion int64 = -1

// Snapshot is one stored aggregate. State is the variant's own JSON encoding.
type Snapshot struct {
	Variant models.Variant  `json:"gameType"`
	Version int64           `json:"version"`
	State   json.RawMessage `json:"state"`
}

// RedisStore keeps one JSON snapshot per session under game:<id>:state.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore returns a store whose keys expire ttl after the last save.
// A zero ttl keeps keys forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Load returns the stored snapshot or ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	b, err := s.rdb.Get(ctx, stateKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("cache: get %s: %w", sessionID, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("cache: decode %s: %w", sessionID, err)
	}
	return snap, nil
}

// Save writes snap when the stored version equals expected (0 meaning
// absent). The check and the write run in one WATCH/MULTI transaction, so a
// concurrent writer makes Save fail with ErrVersionConflict.
func (s *RedisStore) Save(ctx context.Context, sessionID string, snap Snapshot, expected int64) error {
	key := stateKey(sessionID)
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", sessionID, err)
	}

	txf := func(tx *redis.Tx) error {
		if expected != anyVersion {
			current, err := storedVersion(ctx, tx, key)
			if err != nil {
				return err
			}
			if current != expected {
				return ErrVersionConflict
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, s.ttl)
			return nil
		})
		return err
	}

	err = s.rdb.Watch(ctx, txf, key)
	switch {
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, ErrVersionConflict):
		return ErrVersionConflict
	case err != nil:
		return fmt.Errorf("cache: save %s: %w", sessionID, err)
	}
	return nil
}

func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	b, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var head struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return 0, err
	}
	return head.Version, nil
}

// Delete removes a session's state.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, stateKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("cache: delete %s: %w", sessionID, err)
	}
	return nil
}

// MemoryStore is an in-process Store. Each session has its own lock.
type MemoryStore struct {
	sessions sync.Map // string -> *memoryEntry
}

type memoryEntry struct {
	mu   sync.Mutex
	snap *Snapshot
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) entry(sessionID string) *memoryEntry {
	e, _ := s.sessions.LoadOrStore(sessionID, &memoryEntry{})
	return e.(*memoryEntry)
}

// Load returns a copy of the stored snapshot or ErrNotFound.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (Snapshot, error) {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snap == nil {
		return Snapshot{}, ErrNotFound
	}
	out := *e.snap
	out.State = append(json.RawMessage(nil), e.snap.State...)
	return out, nil
}

// Save stores a copy of snap under the same version rule as RedisStore.
func (s *MemoryStore) Save(_ context.Context, sessionID string, snap Snapshot, expected int64) error {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if expected != anyVersion {
		var current int64
		if e.snap != nil {
			current = e.snap.Version
		}
		if current != expected {
			return ErrVersionConflict
		}
	}
	stored := snap
	stored.State = append(json.RawMessage(nil), snap.State...)
	e.snap = &stored
	return nil
}

// Delete clears a session's state. The entry stays so a save racing the
// delete still goes through the same lock.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	e := s.entry(sessionID)
	e.mu.Lock()
	e.snap = nil
	e.mu.Unlock()
	return nil
}
