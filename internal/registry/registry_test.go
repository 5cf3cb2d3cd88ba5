package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	req := require.New(t)
	r := New()
	userID := uuid.NewString()
	sessionID := uuid.NewString()

	// Given an empty registry
	req.False(r.IsOnline(userID))
	req.Zero(r.Len())

	// When a session registers
	r.Register(userID, sessionID)

	// Then the user is online under that session
	req.True(r.IsOnline(userID))
	got, ok := r.SessionID(userID)
	req.True(ok)
	req.Equal(sessionID, got)
}

func TestRegistry_Remove(t *testing.T) {
	req := require.New(t)
	r := New()
	userID := uuid.NewString()

	r.Register(userID, uuid.NewString())
	r.Remove(userID)

	req.False(r.IsOnline(userID))
	_, ok := r.SessionID(userID)
	req.False(ok)

	// Removing an absent user is a no-op
	r.Remove(userID)
	req.Zero(r.Len())
}

func TestRegistry_NewSessionSupersedes(t *testing.T) {
	req := require.New(t)
	r := New()
	userID := uuid.NewString()
	first := uuid.NewString()
	second := uuid.NewString()

	r.Register(userID, first)
	r.Register(userID, second)

	got, ok := r.SessionID(userID)
	req.True(ok)
	req.Equal(second, got)
	req.Equal(1, r.Len())
}

func TestRegistry_RemoveSession_OnlyOwnerEvicts(t *testing.T) {
	req := require.New(t)
	r := New()
	userID := uuid.NewString()
	first := uuid.NewString()
	second := uuid.NewString()

	// Given the first session was superseded by the second
	r.Register(userID, first)
	r.Register(userID, second)

	// When the stale session disconnects
	req.False(r.RemoveSession(userID, first))

	// Then the user stays online under the live session
	req.True(r.IsOnline(userID))

	// And only the owning session takes the user offline
	req.True(r.RemoveSession(userID, second))
	req.False(r.IsOnline(userID))
}

func TestRegistry_IsolationBetweenUsers(t *testing.T) {
	req := require.New(t)
	r := New()
	alice := uuid.NewString()
	bob := uuid.NewString()

	r.Register(alice, uuid.NewString())
	r.Register(bob, uuid.NewString())
	r.Remove(alice)

	req.False(r.IsOnline(alice))
	req.True(r.IsOnline(bob))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	req := require.New(t)
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n)
			for j := 0; j < 100; j++ {
				r.Register(userID, fmt.Sprintf("session-%d-%d", n, j))
				r.IsOnline(userID)
				r.SessionID(userID)
			}
			r.Remove(userID)
		}(i)
	}
	wg.Wait()

	req.Zero(r.Len())
}
