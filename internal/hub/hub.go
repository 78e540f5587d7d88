// Package hub fans lobby events out to per-user subscription channels. It
// guarantees at most one canonical subscription per (lobby, user) and keeps
// a slow or dead subscriber from affecting the rest of a lobby.
package hub

import (
	"sync"

	"go.uber.org/zap"
)

// Event codes on the subscription stream.
const (
	EventUserJoined         = "USER_JOINED"
	EventUserExited         = "USER_EXITED"
	EventLobbyClosed        = "LOBBY_CLOSED"
	EventRoundStarted       = "ROUND_STARTED"
	EventQuestionStarted    = "QUESTION_STARTED"
	EventAnswerReceived     = "ANSWER_RECEIVED"
	EventLeaderboardUpdated = "LEADERBOARD_UPDATED"
	EventRoundEnded         = "ROUND_ENDED"
	EventSocketReplaced     = "SOCKET_REPLACED"
)

// Envelope is one broadcast message as it goes over the wire.
type Envelope struct {
	Code string `json:"code"`
	Data any    `json:"data"`
}

// Signal is an internal lifecycle instruction to a connection loop, never
// delivered to clients directly. Replacement and release are deliberately
// distinct so the loop can tell a newer login from a forced disconnect.
type Signal int

const (
	SignalNone Signal = iota
	// SignalReplaced: a newer connection took over this (lobby, user) slot.
	SignalReplaced
	// SignalReleased: the user was removed or the lobby closed.
	SignalReleased
)

// Message is what a subscriber receives: a broadcast envelope, or a signal
// when Signal is not SignalNone.
type Message struct {
	Envelope Envelope
	Signal   Signal
}

// Each subscription gets a bounded mailbox. A subscriber that falls this far
// behind is cut loose rather than stalling or growing without bound; the
// client is expected to reconnect.
const mailboxSize = 64

// Subscription is one registered delivery channel for a (lobby, user) pair.
type Subscription struct {
	LobbyID string
	UserID  string
	ch      chan Message
	closed  bool // guarded by the hub mutex
}

// C is the receive side. It is closed only when the hub force-drops the
// subscriber for falling behind.
func (s *Subscription) C() <-chan Message { return s.ch }

type Hub struct {
	log *zap.Logger

	mu      sync.Mutex
	lobbies map[string]map[string]*Subscription
}

func New(log *zap.Logger) *Hub {
	return &Hub{
		log:     log,
		lobbies: make(map[string]map[string]*Subscription),
	}
}

// Subscribe registers the canonical subscription for (lobbyID, userID). An
// existing subscription receives exactly one SignalReplaced; its loop is
// responsible for telling the displaced client and closing the old
// transport.
func (h *Hub) Subscribe(lobbyID, userID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.lobbies[lobbyID][userID]; ok {
		h.deliver(prev, Message{Signal: SignalReplaced})
	}

	// Look the lobby map up only after the replacement signal: delivering to
	// a full mailbox drops the old subscription, which can remove the map if
	// it held no one else.
	users, ok := h.lobbies[lobbyID]
	if !ok {
		users = make(map[string]*Subscription)
		h.lobbies[lobbyID] = users
	}
	sub := &Subscription{LobbyID: lobbyID, UserID: userID, ch: make(chan Message, mailboxSize)}
	users[userID] = sub
	return sub
}

// Unsubscribe removes sub only if it is still the canonical subscription for
// its slot, so a stale handle from a replaced connection never unregisters
// its successor.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	users := h.lobbies[sub.LobbyID]
	if users == nil || users[sub.UserID] != sub {
		return
	}
	delete(users, sub.UserID)
	if len(users) == 0 {
		delete(h.lobbies, sub.LobbyID)
	}
}

// Publish fans an event out to every subscriber of the lobby. Delivery is
// fire-and-forget; the caller never blocks.
func (h *Hub) Publish(lobbyID, code string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.lobbies[lobbyID] {
		h.deliver(sub, Message{Envelope: Envelope{Code: code, Data: data}})
	}
}

// ReleaseUser ends the active connection loop for one user. The loop
// unregisters itself on the way out.
func (h *Hub) ReleaseUser(lobbyID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.lobbies[lobbyID][userID]; ok {
		h.deliver(sub, Message{Signal: SignalReleased})
	}
}

// CloseLobby tells every subscriber the lobby is gone, in order: the
// client-visible LOBBY_CLOSED, then the release signal, then the whole
// channel set is forgotten.
func (h *Hub) CloseLobby(lobbyID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.lobbies[lobbyID] {
		h.deliver(sub, Message{Envelope: Envelope{Code: EventLobbyClosed, Data: struct{}{}}})
		h.deliver(sub, Message{Signal: SignalReleased})
	}
	delete(h.lobbies, lobbyID)
}

// deliver never blocks: a full mailbox means the subscriber is wedged, and
// it gets dropped so the remaining subscribers still receive the event.
// Caller holds h.mu.
func (h *Hub) deliver(sub *Subscription, msg Message) {
	if sub.closed {
		return
	}
	select {
	case sub.ch <- msg:
	default:
		h.log.Warn("subscriber mailbox full, dropping connection",
			zap.String("lobby_id", sub.LobbyID),
			zap.String("user_id", sub.UserID))
		h.dropLocked(sub)
	}
}

// dropLocked force-removes sub and closes its channel; the loop observes the
// close and tears the transport down. Caller holds h.mu.
func (h *Hub) dropLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	users := h.lobbies[sub.LobbyID]
	if users != nil && users[sub.UserID] == sub {
		delete(users, sub.UserID)
		if len(users) == 0 {
			delete(h.lobbies, sub.LobbyID)
		}
	}
	close(sub.ch)
}
