// internal/cache/cache.go

// Package cache holds the key-value side of the service: the versioned
// session store, the pub/sub broadcaster, the lobby roster and the action
// journal. Each has a Redis implementation and an in-memory one used in
// tests and when no Redis address is configured.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when a session has no stored state.
	ErrNotFound = errors.New("cache: session not found")
	// ErrVersionConflict is returned when a save races another writer.
	ErrVersionConflict = errors.New("cache: version conflict")
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a Redis client and checks it with a PING.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

func stateKey(sessionID string) string   { return "game:" + sessionID + ":state" }
func actionsKey(sessionID string) string { return "game:" + sessionID + ":actions" }
func rosterKey(sessionID string) string  { return "lobby:players:" + sessionID }

// Channel is the pub/sub channel for one session topic.
func Channel(sessionID, topic string) string {
	return "lobby:" + sessionID + ":" + topic
}
