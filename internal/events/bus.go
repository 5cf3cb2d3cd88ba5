// Package events is the in-process bridge between the social-graph write path
// and realtime delivery. Publishers never touch transport code; the gateway
// subscribes and re-emits each event to the relevant personal room.
package events

import (
	"sync"

	"github.com/driftchat/realtime/pkg/log"
)

// Event is the closed set of cross-module notifications.
type Event interface {
	isEvent()
}

// FriendRequestCreated fires when a new pending friend request is stored.
type FriendRequestCreated struct {
	SenderID   string
	ReceiverID string
}

// FriendshipUpdated fires when a friendship reaches the accepted state.
type FriendshipUpdated struct {
	UserA string
	UserB string
}

func (FriendRequestCreated) isEvent() {}
func (FriendshipUpdated) isEvent()    {}

// Handler receives every published event and switches on the variant.
type Handler func(Event)

// Bus dispatches events synchronously to all registered handlers.
// A panicking handler is contained and logged; it never reaches the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler. Handlers cannot be removed; subscribers live
// for the process lifetime.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers e to every handler in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					l := log.L()
					l.Error().Interface("panic", r).Msg("event handler panicked")
				}
			}()
			h(e)
		}()
	}
}
