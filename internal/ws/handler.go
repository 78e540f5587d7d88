// Package ws drives one WebSocket connection per (lobby, user). The hub owns
// replacement and release; this loop just forwards envelopes in receive
// order and turns signals into transport teardown.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dancras/tv-quiz-party/internal/auth"
	"github.com/dancras/tv-quiz-party/internal/hub"
	"github.com/dancras/tv-quiz-party/internal/lobby"
)

const writeTimeout = 3 * time.Second

func Handler(store *lobby.Store, h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok {
			http.Error(w, "handshake before using API", http.StatusForbidden)
			return
		}
		lobbyID := chi.URLParam(r, "lobby_id")

		lb, err := store.Read(lobbyID)
		if err != nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		if _, member := lb.Users[userID]; !member {
			http.Error(w, "join the lobby first", http.StatusForbidden)
			return
		}

		// Register before completing the upgrade so no broadcast slips
		// between the handshake and the subscription.
		sub := h.Subscribe(lb.ID, userID)
		defer h.Unsubscribe(sub)

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}

		log.Info("subscriber connected",
			zap.String("lobby_id", lb.ID),
			zap.String("user_id", userID))

		// This is a server-push stream; reads only tell us the peer went
		// away.
		ctx := conn.CloseRead(r.Context())

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "bye")
				return

			case msg, ok := <-sub.C():
				if !ok {
					// Force-dropped by the hub for falling behind.
					conn.Close(websocket.StatusPolicyViolation, "slow consumer")
					return
				}
				switch msg.Signal {
				case hub.SignalReplaced:
					// The displaced client gets exactly one terminal frame
					// before closure.
					_ = write(ctx, conn, hub.Envelope{Code: hub.EventSocketReplaced, Data: struct{}{}})
					conn.Close(websocket.StatusNormalClosure, "socket replaced")
					return
				case hub.SignalReleased:
					// Removed from the lobby, or the lobby closed. Whatever
					// the client should know (USER_EXITED, LOBBY_CLOSED)
					// already precedes this signal on the same channel, so
					// close without a further frame.
					conn.Close(websocket.StatusNormalClosure, "released")
					return
				}
				if err := write(ctx, conn, msg.Envelope); err != nil {
					log.Debug("write failed, dropping subscriber",
						zap.String("lobby_id", lb.ID),
						zap.String("user_id", userID),
						zap.Error(err))
					conn.Close(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, env hub.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
