// internal/models/action.go
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Variant identifies a rule set.
type Variant string

// Registered variants.
const (
	VariantFlipSeven Variant = "FLIP_SEVEN"
	VariantSkullKing Variant = "SKULL_KING"
	VariantUno       Variant = "UNO"
)

// ParseVariant normalizes a client supplied variant id. Unknown ids are
// returned upper-cased so the dispatcher can log them.
func ParseVariant(s string) Variant {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	switch v {
	case "FLIPSEVEN", "FLIP7":
		return VariantFlipSeven
	case "SKULLKING":
		return VariantSkullKing
	}
	return Variant(v)
}

// Action is the inbound envelope for one player move. Sender is filled in by
// the transport from the authenticated identity, never from the client body.
type Action struct {
	SessionID  string         `json:"sessionId"`
	Sender     string         `json:"sender,omitempty"`
	Variant    Variant        `json:"gameType,omitempty"`
	ActionKind string         `json:"action,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Kind returns the action kind. Older clients put it inside the payload under
// "action".
func (a Action) Kind() string {
	if a.ActionKind != "" {
		return a.ActionKind
	}
	if k, ok := a.Payload["action"].(string); ok {
		return k
	}
	return ""
}

// GameEventType tags outbound messages.
type GameEventType string

const (
	EventGameUpdate GameEventType = "GAME_UPDATE"
	EventGameEnd    GameEventType = "GAME_END"
)

// GameEvent is the envelope published to every subscriber of a session.
type GameEvent struct {
	Type      GameEventType `json:"type"`
	SessionID string        `json:"sessionId"`
	Variant   Variant       `json:"gameType"`
	Version   int64         `json:"version"`
	GameState any           `json:"gameState"`
}

// GameSummary is the archived record of a finished session.
type GameSummary struct {
	SessionID  string          `json:"sessionId"`
	Variant    Variant         `json:"gameType"`
	Winner     string          `json:"winner,omitempty"`
	Scores     json.RawMessage `json:"scores"`
	FinalState json.RawMessage `json:"finalState"`
	FinishedAt time.Time       `json:"finishedAt"`
}
