package ws

import (
	"log"
	"sort"
	"sync"

	"github.com/strudel-live/backend/internal/model"
	"github.com/strudel-live/backend/internal/session"
)

// Manager owns the set of live connections and the session-code binding
// table. All mutation funnels through its methods under one mutex, so the
// existence checks in Register, Unregister, and GenerateSessionID are atomic
// with respect to concurrent callers.
type Manager struct {
	mu       sync.RWMutex
	clients  map[*Client]bool
	sessions map[string]*Client
}

// NewManager creates an empty connection manager.
func NewManager() *Manager {
	return &Manager{
		clients:  make(map[*Client]bool),
		sessions: make(map[string]*Client),
	}
}

// Register adds a live connection and, if sessionID is non-empty, binds it.
// Rebinding an id already in use is last-writer-wins: a stale binding implies
// an orphaned prior connection, which stays in the live set until its own
// transport-level closure but receives no further session-addressed sends.
func (m *Manager) Register(client *Client, sessionID string) {
	m.mu.Lock()
	m.clients[client] = true
	if sessionID != "" {
		if prev, ok := m.sessions[sessionID]; ok && prev != client {
			log.Printf("Session %s rebound to a new connection; previous connection orphaned", sessionID)
		}
		m.sessions[sessionID] = client
	}
	total := len(m.clients)
	m.mu.Unlock()

	if sessionID != "" {
		log.Printf("New WebSocket connection with session %s. Total: %d", sessionID, total)
	} else {
		log.Printf("New WebSocket connection. Total: %d", total)
	}
}

// Unregister removes the connection from the live set and drops any session
// binding pointing at it. Idempotent; it is invoked on every exit path of the
// connection's receive loop and again on send failure.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	_, wasLive := m.clients[client]
	delete(m.clients, client)

	var unbound string
	for id, c := range m.sessions {
		if c == client {
			unbound = id
			delete(m.sessions, id)
			break
		}
	}
	total := len(m.clients)
	m.mu.Unlock()

	client.Close()

	if !wasLive {
		return
	}
	if unbound != "" {
		log.Printf("WebSocket disconnected (session %s). Total: %d", unbound, total)
	} else {
		log.Printf("WebSocket disconnected. Total: %d", total)
	}
}

// SendToSession delivers an envelope to the connection bound to sessionID.
// Returns false for an unknown or offline session, with no side effects. A
// write failure is treated as a disconnect: the connection is unregistered
// and false is returned. Callers that need to distinguish "never existed"
// from "just died" must consult IsSessionActive first.
func (m *Manager) SendToSession(sessionID string, env *model.Envelope) bool {
	m.mu.RLock()
	client, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	data, err := env.Encode()
	if err != nil {
		log.Printf("Error encoding %s envelope for session %s: %v", env.Type, sessionID, err)
		return false
	}

	if !client.Send(data) {
		log.Printf("Error sending to session %s: connection gone", sessionID)
		m.Unregister(client)
		return false
	}
	return true
}

// IsSessionActive reports whether a connection is currently bound to sessionID.
func (m *Manager) IsSessionActive(sessionID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[sessionID]
	return ok
}

// ConnectionCount returns the number of live connections, bound or not.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// ActiveSessionIDs returns a sorted snapshot of the currently bound session codes.
func (m *Manager) ActiveSessionIDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// GenerateSessionID produces a session code that is unbound at the instant of
// return. The candidate check runs under the binding table's lock, so a
// concurrent bind cannot race the same code into use mid-generation.
func (m *Manager) GenerateSessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return session.NewCode(func(code string) bool {
		_, taken := m.sessions[code]
		return taken
	})
}

// Close closes every live connection and clears all bindings.
func (m *Manager) Close() {
	m.mu.Lock()
	clients := make([]*Client, 0, len(m.clients))
	for client := range m.clients {
		clients = append(clients, client)
	}
	m.clients = make(map[*Client]bool)
	m.sessions = make(map[string]*Client)
	m.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
