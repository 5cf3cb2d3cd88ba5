// Package registry tracks which users currently hold a live session.
//
// The table is the single piece of process-wide mutable state shared across
// connection goroutines. Critical sections only mutate the map; no I/O ever
// happens under the lock. "Online" means "has a registered session": a new
// connection from the same user silently supersedes the previous entry.
package registry

import "sync"

// Registry maps a user id to its latest session id.
// It is constructed once at startup and injected wherever presence is needed.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]string // userID -> sessionID
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{sessions: make(map[string]string)}
}

// Register records sessionID as the live session for userID, overwriting any
// prior entry.
func (r *Registry) Register(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = sessionID
}

// Remove drops the entry for userID. No-op if absent.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// RemoveSession drops the entry for userID only if sessionID still owns it.
// A session that was superseded by a newer connection must not evict its
// successor when it finally disconnects.
func (r *Registry) RemoveSession(userID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[userID]; ok && current == sessionID {
		delete(r.sessions, userID)
		return true
	}
	return false
}

// IsOnline reports whether userID has a registered session.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[userID]
	return ok
}

// SessionID returns the live session id for userID, if any.
func (r *Registry) SessionID(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.sessions[userID]
	return id, ok
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
