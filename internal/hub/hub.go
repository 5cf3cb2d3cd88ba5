package hub

import (
	"encoding/json"
	"sync"

	"github.com/driftchat/realtime/pkg/log"
)

// Hub owns every live client and the room membership table. Rooms are named
// multicast groups: one personal room per user plus one room per conversation
// a session is currently viewing.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	rooms      map[string]map[string]*Client // room -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomMessage
	mu         sync.RWMutex
}

type roomMessage struct {
	Room    string
	Message []byte
	Exclude string // client id to skip
}

func New() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomMessage, 256),
	}
}

// Run owns the register/unregister/broadcast loop. Start it in its own
// goroutine before accepting connections.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str("client_id", client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for _, room := range client.Session.Rooms() {
					if members, ok := h.rooms[room]; ok {
						delete(members, client.ID)
						if len(members) == 0 {
							delete(h.rooms, room)
						}
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str("client_id", client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			members := h.rooms[msg.Room]
			for clientID, client := range members {
				if clientID == msg.Exclude {
					continue
				}
				select {
				case client.Send <- msg.Message:
				default:
					// Slow consumer: evict rather than block the loop.
					go h.Unregister(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinRoom adds the client to a room and mirrors the membership on its
// session so per-session checks need no hub lock.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][client.ID] = client
	h.mu.Unlock()

	client.Session.JoinRoom(room)
	l := log.L()
	l.Debug().Str("client_id", client.ID).Str(log.FieldRoom, room).Msg("client joined room")
}

// LeaveRoom removes the client from a room. No-op if it was not a member.
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	if members, ok := h.rooms[room]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	client.Session.LeaveRoom(room)
	l := log.L()
	l.Debug().Str("client_id", client.ID).Str(log.FieldRoom, room).Msg("client left room")
}

// BroadcastToRoom marshals the event once and queues it for every member of
// the room. Delivery is best-effort: offline targets simply miss it.
func (h *Hub) BroadcastToRoom(room string, event interface{}, exclude string) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.broadcast <- &roomMessage{Room: room, Message: data, Exclude: exclude}
	return nil
}

// Client looks up a live client by id.
func (h *Hub) Client(clientID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[clientID]
	return c, ok
}

// RoomSize returns the number of clients currently in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
