package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"quizontal-backend/internal/identity"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait         = 10 * time.Second
	notificationQueue = 256
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Conn is the part of a websocket connection the hub writes to
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// WSHub tracks every open connection of every user, so all tabs of a user
// hear about session changes. Session notifications are queued and written
// by the hub's own goroutine; when the queue is full they are dropped.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]map[Conn]*sync.Mutex

	events    chan identity.Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewWSHub creates a new WebSocket hub and starts its notification loop
func NewWSHub() *WSHub {
	h := &WSHub{
		connections: make(map[string]map[Conn]*sync.Mutex),
		events:      make(chan identity.Event, notificationQueue),
		done:        make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *WSHub) run() {
	for {
		select {
		case ev := <-h.events:
			h.notify(ev)
		case <-h.done:
			return
		}
	}
}

// Register adds a connection for a user
func (h *WSHub) Register(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[userID] == nil {
		h.connections[userID] = make(map[Conn]*sync.Mutex)
	}
	h.connections[userID][conn] = &sync.Mutex{}

	log.Info().Str("user_id", userID).Int("connections", len(h.connections[userID])).Msg("WebSocket connection registered")
}

// Unregister removes and closes a connection
func (h *WSHub) Unregister(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.connections[userID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		conn.Close()
		delete(conns, conn)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
	if len(conns) == 0 {
		delete(h.connections, userID)
	}
}

// SendToUser sends a message to every connection of a user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.RLock()
	targets := make(map[Conn]*sync.Mutex, len(h.connections[userID]))
	for conn, lock := range h.connections[userID] {
		targets[conn] = lock
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return fmt.Errorf("user %s is not connected", userID)
	}

	var failed int
	for conn, lock := range targets {
		lock.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.TextMessage, data)
		lock.Unlock()
		if err != nil {
			failed++
			h.Unregister(userID, conn)
		}
	}
	if failed == len(targets) {
		return fmt.Errorf("failed to send message to user %s", userID)
	}
	return nil
}

// SendToConn sends a message to one connection of a user
func (h *WSHub) SendToConn(userID string, conn Conn, message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.RLock()
	lock, ok := h.connections[userID][conn]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection of user %s is not registered", userID)
	}

	lock.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err = conn.WriteMessage(websocket.TextMessage, data)
	lock.Unlock()
	if err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// IsOnline checks if a user has at least one open connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID]) > 0
}

// SessionChanged queues a session_started / session_ended notification for
// the user's tabs. It never blocks the caller.
func (h *WSHub) SessionChanged(ev identity.Event) {
	if !h.IsOnline(ev.Identity.UserID) {
		return
	}

	select {
	case h.events <- ev:
	case <-h.done:
	default:
		log.Warn().Str("user_id", ev.Identity.UserID).Str("type", string(ev.Kind)).Msg("Notification queue full, dropping session notification")
	}
}

func (h *WSHub) notify(ev identity.Event) {
	if !h.IsOnline(ev.Identity.UserID) {
		return
	}

	message := WSMessage{
		Type:      string(ev.Kind),
		Timestamp: ev.At.UnixMilli(),
		UserID:    ev.Identity.UserID,
	}
	if err := h.SendToUser(ev.Identity.UserID, message); err != nil {
		log.Error().Err(err).Str("user_id", ev.Identity.UserID).Msg("Failed to notify session change")
	}
}

// Close stops the notification loop and closes every connection
func (h *WSHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, conns := range h.connections {
		for conn := range conns {
			conn.Close()
		}
		delete(h.connections, userID)
	}
}
