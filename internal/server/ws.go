// internal/server/ws.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/jason-s-yu/cardgames/engine"
	"github.com/jason-s-yu/cardgames/internal/game"
	"github.com/jason-s-yu/cardgames/internal/models"
)

const (
	pingInterval = 15 * time.Second
	writeTimeout = 5 * time.Second
	maxFrameSize = 64 << 10
)

// handleSocket joins the caller to the session roster, relays the session's
// game topic to the socket and forwards every inbound frame as an action.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Identify(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	sessionID := r.PathValue("id")
	logger := log.WithFields(log.Fields{"session": sessionID, "sender": user})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: s.auth.DevMode()})
	if err != nil {
		logger.WithError(err).Debug("Websocket accept failed.")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxFrameSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := s.subs.Subscribe(ctx, sessionID, game.TopicGame)
	if err != nil {
		logger.WithError(err).Error("Failed to subscribe to session.")
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer sub.Close()

	if err := s.roster.Join(ctx, sessionID, user); err != nil {
		logger.WithError(err).Error("Failed to join roster.")
		conn.Close(websocket.StatusInternalError, "join failed")
		return
	}
	defer func() {
		if err := s.roster.Leave(context.WithoutCancel(ctx), sessionID, user); err != nil {
			logger.WithError(err).Warn("Failed to leave roster.")
		}
	}()
	logger.Info("Player connected.")

	go s.relay(ctx, cancel, conn, sub.C, logger)

	// A fresh socket gets the current state if a game is running.
	if v := s.variantOf(ctx, sessionID); v != "" {
		s.submit(ctx, models.Action{SessionID: sessionID, Sender: user, Variant: v, ActionKind: engine.KindResync}, logger)
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Debug("Socket read ended.")
			}
			break
		}
		var a models.Action
		if err := json.Unmarshal(data, &a); err != nil {
			logger.WithError(err).Debug("Malformed frame dropped.")
			continue
		}
		// Identity and session come from the connection, never the body.
		a.SessionID = sessionID
		a.Sender = user
		a.Variant = models.ParseVariant(string(a.Variant))
		if a.Variant == "" {
			a.Variant = s.variantOf(ctx, sessionID)
		}
		s.submit(ctx, a, logger)
	}
	logger.Info("Player disconnected.")
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) submit(ctx context.Context, a models.Action, logger *log.Entry) {
	if err := s.games.Submit(ctx, a); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Warn("Failed to queue action.")
	}
}

// relay writes published messages to the socket and keeps it alive with
// pings. Any write failure ends the connection.
func (s *Server) relay(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, msgs <-chan []byte, logger *log.Entry) {
	defer cancel()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			wcancel()
			if err != nil {
				logger.WithError(err).Debug("Socket write failed.")
				return
			}
		case <-ping.C:
			if err := conn.Ping(ctx); err != nil {
				logger.WithError(err).Debug("Socket ping failed.")
				return
			}
		}
	}
}
