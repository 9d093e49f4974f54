// Package engine holds the pieces shared by every card game variant: the
// move envelope a rule engine consumes, the terminal result it reports, and
// the deck helpers (stable card ids, shuffling, front-of-pile draws).
//
// Rule engines live in the sub-packages (flipseven, skullking, uno). They are
// pure state machines: no I/O, no clocks, and all randomness comes from the
// *rand.Rand the caller passes in.
package engine

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Move is one player action as seen by a rule engine.
type Move struct {
	Sender  string
	Kind    string
	Payload map[string]any
}

// NewMove builds a Move with a normalized kind.
func NewMove(sender, kind string, payload map[string]any) Move {
	return Move{Sender: sender, Kind: NormalizeKind(kind), Payload: payload}
}

// NormalizeKind upper-cases a kind and maps camel case to snake case, so
// "SelectTarget", "selectTarget" and "SELECT_TARGET" compare equal.
func NormalizeKind(kind string) string {
	kind = strings.TrimSpace(kind)
	if strings.Contains(kind, "_") || kind == strings.ToUpper(kind) {
		return strings.ToUpper(kind)
	}
	var b strings.Builder
	for i, r := range kind {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// String returns a string field from the payload.
func (m Move) String(key string) (string, bool) {
	v, ok := m.Payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Int returns an integral field from the payload. JSON numbers arrive as
// float64; non-integral values are rejected.
func (m Move) Int(key string) (int, bool) {
	v, ok := m.Payload[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// Bool reports whether the payload holds true under key.
func (m Move) Bool(key string) bool {
	b, ok := m.Payload[key].(bool)
	return ok && b
}

// Score is one player's standing in a Result.
type Score struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Result summarizes a session for archival once it reaches a terminal state.
type Result struct {
	Over   bool    `json:"over"`
	Winner string  `json:"winner,omitempty"`
	Scores []Score `json:"scores"`
}

// KindResync asks for the current state to be re-published. Every variant
// accepts it and it never touches the aggregate.
const KindResync = "RESYNC"

// IsResync reports whether kind is a resynchronization request, including
// the legacy SYNC_REQUEST spelling.
func IsResync(kind string) bool {
	k := NormalizeKind(kind)
	return k == KindResync || k == "SYNC_REQUEST"
}
