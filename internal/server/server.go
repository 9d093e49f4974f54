// Package server is the HTTP and websocket boundary. It authenticates the
// sender, forwards inbound actions to the game hub and relays every state
// update published for a session to the sockets joined to it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cardgames/internal/cache"
	"github.com/jason-s-yu/cardgames/internal/game"
	"github.com/jason-s-yu/cardgames/internal/models"
)

// Games accepts work for sessions. *game.Hub implements it.
type Games interface {
	Submit(ctx context.Context, a models.Action) error
	Initialize(ctx context.Context, sessionID string, v models.Variant) error
}

// Subscriber opens a feed of the messages published on a session topic.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID, topic string) (*cache.Subscription, error)
}

// Sessions reads and discards stored aggregates. Only the variant tag is read
// here.
type Sessions interface {
	Load(ctx context.Context, sessionID string) (cache.Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

// Results reads archived games. *database.ArchiveStore implements it.
type Results interface {
	FinalGameState(ctx context.Context, sessionID string) (models.GameSummary, bool, error)
}

// History reads the actions applied to a session. *cache.Journal implements
// it.
type History interface {
	Actions(ctx context.Context, sessionID string) ([]cache.GameActionRecord, error)
}

// Roster tracks which players are connected to a session.
type Roster interface {
	Join(ctx context.Context, sessionID, username string) error
	Leave(ctx context.Context, sessionID, username string) error
}

type Server struct {
	games    Games
	sessions Sessions
	subs     Subscriber
	roster   Roster
	auth     *Authenticator
	results  Results
	history  History
}

func New(games Games, sessions Sessions, subs Subscriber, roster Roster, auth *Authenticator) *Server {
	return &Server{games: games, sessions: sessions, subs: subs, roster: roster, auth: auth}
}

// WithResults serves finished games from r.
func (s *Server) WithResults(r Results) *Server {
	s.results = r
	return s
}

// WithHistory serves action journals from h.
func (s *Server) WithHistory(h History) *Server {
	s.history = h
	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /sessions", s.handleCreate)
	mux.HandleFunc("POST /sessions/{id}/start", s.handleStart)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDelete)
	mux.HandleFunc("GET /sessions/{id}/result", s.handleResult)
	mux.HandleFunc("GET /sessions/{id}/actions", s.handleActions)
	mux.HandleFunc("GET /ws/{id}", s.handleSocket)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreate mints a session id. Players then join it over the socket.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth.Identify(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": uuid.NewString()})
}

// handleStart deals a new game to the players connected to the session.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Identify(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	sessionID := r.PathValue("id")
	variant := models.ParseVariant(r.URL.Query().Get("variant"))

	logger := log.WithFields(log.Fields{"session": sessionID, "variant": variant, "sender": user})
	if err := s.games.Initialize(r.Context(), sessionID, variant); err != nil {
		switch {
		case errors.Is(err, game.ErrUnknownVariant):
			http.Error(w, "unknown variant", http.StatusBadRequest)
		case errors.Is(err, game.ErrHubClosed):
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		default:
			logger.WithError(err).Error("Failed to start game.")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	logger.Info("Start requested.")
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": sessionID, "gameType": variant})
}

// handleDelete abandons the running game. Actions that arrive afterwards are
// dropped as actions for an unknown session.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Identify(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	sessionID := r.PathValue("id")
	logger := log.WithFields(log.Fields{"session": sessionID, "sender": user})
	if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
		logger.WithError(err).Error("Failed to delete session.")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	logger.Info("Session deleted.")
	w.WriteHeader(http.StatusNoContent)
}

// handleResult returns the archived summary of a finished game.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth.Identify(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.results == nil {
		http.Error(w, "archive disabled", http.StatusNotImplemented)
		return
	}
	sessionID := r.PathValue("id")
	summary, ok, err := s.results.FinalGameState(r.Context(), sessionID)
	switch {
	case err != nil:
		log.WithField("session", sessionID).WithError(err).Error("Failed to read result.")
		http.Error(w, "internal error", http.StatusInternalServerError)
	case !ok:
		http.Error(w, "not found", http.StatusNotFound)
	default:
		writeJSON(w, http.StatusOK, summary)
	}
}

// handleActions returns the journal of a session, oldest first.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth.Identify(r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.history == nil {
		http.Error(w, "journal disabled", http.StatusNotImplemented)
		return
	}
	sessionID := r.PathValue("id")
	recs, err := s.history.Actions(r.Context(), sessionID)
	if err != nil {
		log.WithField("session", sessionID).WithError(err).Error("Failed to read journal.")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// variantOf returns the variant of the running game, or "" when there is
// none.
func (s *Server) variantOf(ctx context.Context, sessionID string) models.Variant {
	snap, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			log.WithField("session", sessionID).WithError(err).Warn("Failed to read session variant.")
		}
		return ""
	}
	return snap.Variant
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("Failed to write response.")
	}
}
