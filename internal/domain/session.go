package domain

import (
	"sync"
	"time"
)

// Session is the gateway-side state of one live connection. The user id is
// set exactly once, on successful authentication, and never changes for the
// session lifetime.
type Session struct {
	ID            string
	userID        string
	authenticated bool
	rooms         map[string]struct{}
	CreatedAt     time.Time
	lastActiveAt  time.Time
	mu            sync.RWMutex
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		rooms:        make(map[string]struct{}),
		CreatedAt:    now,
		lastActiveAt: now,
	}
}

// Authenticate binds the session to a user. Subsequent calls are ignored.
func (s *Session) Authenticate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authenticated {
		return
	}
	s.userID = userID
	s.authenticated = true
	s.lastActiveAt = time.Now()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) JoinRoom(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room] = struct{}{}
	s.lastActiveAt = time.Now()
}

func (s *Session) LeaveRoom(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, room)
	s.lastActiveAt = time.Now()
}

func (s *Session) InRoom(room string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[room]
	return ok
}

// Rooms returns a snapshot of the joined room names.
func (s *Session) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rooms))
	for r := range s.rooms {
		out = append(out, r)
	}
	return out
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}

func (s *Session) LastActiveAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActiveAt
}
