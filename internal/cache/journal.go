// internal/cache/journal.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// journalCap bounds the per-session action list.
const journalCap = 1000

// GameActionRecord is one applied action as kept in the journal.
type GameActionRecord struct {
	SessionID     string         `json:"sessionId"`
	ActionIndex   int64          `json:"actionIndex"`
	Actor         string         `json:"actor"`
	ActionType    string         `json:"actionType"`
	ActionPayload map[string]any `json:"actionPayload"`
	Timestamp     int64          `json:"timestamp"`
}

// Journal appends applied actions to game:<id>:actions, keeping the most
// recent journalCap entries.
type Journal struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewJournal(rdb *redis.Client, ttl time.Duration) *Journal {
	return &Journal{rdb: rdb, ttl: ttl}
}

// PublishGameAction appends rec to its session's journal.
func (j *Journal) PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cache: encode action %d: %w", rec.ActionIndex, err)
	}
	key := actionsKey(rec.SessionID)
	pipe := j.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, -journalCap, -1)
	if j.ttl > 0 {
		pipe.Expire(ctx, key, j.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: journal %s: %w", rec.SessionID, err)
	}
	return nil
}

// Actions returns the journal of a session, oldest first.
func (j *Journal) Actions(ctx context.Context, sessionID string) ([]GameActionRecord, error) {
	raw, err := j.rdb.LRange(ctx, actionsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: journal %s: %w", sessionID, err)
	}
	out := make([]GameActionRecord, 0, len(raw))
	for _, r := range raw {
		var rec GameActionRecord
		if err := json.Unmarshal([]byte(r), &rec); err != nil {
			return nil, fmt.Errorf("cache: decode journal entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
