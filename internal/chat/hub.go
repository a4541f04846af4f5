package chat

import (
	"log"
	"sync"
)

// Hub holds the per-room fan-out tables. Membership here is transport
// level only: any connection may be registered for a room regardless
// of authentication, the session layer gates identity-bearing actions.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int]map[*Client]struct{}
	log   *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		rooms: make(map[int]map[*Client]struct{}),
		log:   logger,
	}
}

func (h *Hub) AddMember(roomId int, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[roomId]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[roomId] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) RemoveMember(roomId int, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomId]
	if !ok {
		return
	}

	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, roomId)
	}
}

// Dispatch delivers the frame to every connection registered for the
// room, at most once each. Delivery is fire-and-forget: a slow
// consumer has its frame dropped, never blocking the caller.
func (h *Hub) Dispatch(roomId int, frame ServerFrame) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomId]))
	for c := range h.rooms[roomId] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.queueFrame(frame) {
			h.log.Printf("hub: dropped %s frame for session %s", frame.frameType(), c.id)
		}
	}
}
