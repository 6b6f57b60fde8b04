package membership

import (
	"context"
	"sync"

	"quizontal-backend/internal/identity"
	"quizontal-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// SessionObserver is told about every session event the manager handled
type SessionObserver interface {
	SessionChanged(ev identity.Event)
}

// Manager owns the live sessions, one per logged-in user
type Manager struct {
	stores    Stores
	observers []SessionObserver

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager
func NewManager(stores Stores, observers ...SessionObserver) *Manager {
	return &Manager{
		stores:    stores,
		observers: observers,
		sessions:  make(map[string]*Session),
	}
}

// Run consumes session events until ctx is done or the channel is closed
func (m *Manager) Run(ctx context.Context, events <-chan identity.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.Handle(ctx, ev)
		}
	}
}

// Handle applies one session event: started loads the user's session, ended
// clears and drops it
func (m *Manager) Handle(ctx context.Context, ev identity.Event) {
	userID := ev.Identity.UserID

	switch ev.Kind {
	case identity.SessionStarted:
		sess := m.getOrCreate(ev.Identity)
		if err := sess.Load(ctx); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to load session")
		} else {
			log.Info().Str("user_id", userID).Msg("Session loaded")
		}
	case identity.SessionEnded:
		m.mu.Lock()
		sess, ok := m.sessions[userID]
		delete(m.sessions, userID)
		m.mu.Unlock()
		if ok {
			sess.Close()
		}
		log.Info().Str("user_id", userID).Msg("Session closed")
	default:
		log.Warn().Str("kind", string(ev.Kind)).Msg("Unknown session event")
		return
	}

	for _, o := range m.observers {
		o.SessionChanged(ev)
	}
}

// Session returns the live session for ident, creating and loading it when a
// valid token arrives without a preceding login event (e.g. after a restart)
func (m *Manager) Session(ctx context.Context, ident models.Identity) (*Session, error) {
	sess := m.getOrCreate(ident)
	if sess.Cache.Loaded() {
		return sess, nil
	}
	if err := sess.Load(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// Active returns the number of live sessions
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) getOrCreate(ident models.Identity) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[ident.UserID]; ok {
		return sess
	}
	sess := NewSession(ident, m.stores)
	m.sessions[ident.UserID] = sess
	return sess
}
