package chat

import (
	"database/sql"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Powerisinschool/edupane-backend/internal/database"
	"github.com/Powerisinschool/edupane-backend/internal/stats"
)

// now is the session clock, UTC rounded to the millisecond.
func now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}

// Metric names registered with the stats provider.
const (
	MetricActiveConnections = "ActiveConnections"
	MetricMessagesPersisted = "MessagesPersisted"
	MetricBroadcasts        = "BroadcastsDelivered"
	MetricRateLimited       = "RateLimitedMessages"
)

// Store is the durable collaborator boundary the chat core consumes.
// database.EdupaneRepository satisfies it.
type Store interface {
	GetRoomParticipantIds(roomId int) ([]int, error)
	CreateMessage(roomId, senderId int, content string) (database.Message, error)
	ListMessagesBefore(roomId int, before *time.Time, limit int) ([]database.Message, error)
}

// ChatServer wires the presence registry, broadcast hub, backbone and
// store into the per-connection session lifecycle.
type ChatServer struct {
	log      *log.Logger
	store    Store
	hub      *Hub
	presence *PresenceRegistry
	backbone Backbone
	stats    stats.StatsProvider

	clients     map[*Client]struct{}
	clientsLock sync.Mutex
}

func NewChatServer(logger *log.Logger, store Store, presence *PresenceRegistry, sp stats.StatsProvider) *ChatServer {
	cs := &ChatServer{
		log:      logger,
		store:    store,
		hub:      NewHub(logger),
		presence: presence,
		stats:    sp,
		clients:  make(map[*Client]struct{}),
	}
	cs.backbone = NewLocalBackbone(cs.hub)

	sp.RegisterMetric(MetricActiveConnections)
	sp.RegisterMetric(MetricMessagesPersisted)
	sp.RegisterMetric(MetricBroadcasts)
	sp.RegisterMetric(MetricRateLimited)

	return cs
}

// UseRedisBackbone swaps the in-process backbone for a Redis pub/sub
// one. Must be called before Run.
func (cs *ChatServer) UseRedisBackbone(addr string) {
	cs.backbone = NewRedisBackbone(addr, cs.hub, cs.log, cs.handleBackboneLost)
}

func (cs *ChatServer) Run() error {
	cs.presence.Start()
	if err := cs.backbone.Start(); err != nil {
		cs.presence.Stop()
		return err
	}
	return nil
}

func (cs *ChatServer) Shutdown() {
	cs.clientsLock.Lock()
	clients := make([]*Client, 0, len(cs.clients))
	for c := range cs.clients {
		clients = append(clients, c)
	}
	cs.clientsLock.Unlock()

	for _, c := range clients {
		c.closeStop()
	}

	cs.backbone.Close()
	cs.presence.Stop()
}

// Connect moves a session from Connecting to Joined: hub membership is
// unconditional, presence registration only for authenticated callers.
func (cs *ChatServer) Connect(c *Client) {
	cs.clientsLock.Lock()
	cs.clients[c] = struct{}{}
	cs.clientsLock.Unlock()

	cs.hub.AddMember(c.roomId, c)
	cs.stats.Incr(MetricActiveConnections)

	switch id := c.identity.(type) {
	case Authenticated:
		cs.log.Printf("session %s: user %d joined room %q", c.id, id.UserId, c.roomExternal)
		cs.presence.Join(c.roomId, id.UserId)
		c.presenceJoined = true
		cs.broadcastPresence(c.roomId)
	case Anonymous:
		cs.log.Printf("session %s: anonymous visitor joined room %q", c.id, c.roomExternal)
	}
}

// Disconnect unwinds a session deterministically: presence first, then
// hub, then the final presence broadcast that must not include the
// departed user. This path cannot fail.
func (cs *ChatServer) Disconnect(c *Client) {
	if c.presenceJoined {
		if id, ok := c.identity.(Authenticated); ok {
			cs.presence.Leave(c.roomId, id.UserId)
		}
	}

	cs.hub.RemoveMember(c.roomId, c)

	cs.clientsLock.Lock()
	delete(cs.clients, c)
	cs.clientsLock.Unlock()

	cs.stats.Decr(MetricActiveConnections)

	if c.presenceJoined {
		cs.broadcastPresence(c.roomId)
	}

	cs.log.Printf("session %s: left room %q", c.id, c.roomExternal)
}

func (cs *ChatServer) handleFrame(c *Client, frame inboundFrame) {
	switch frame.kind {
	case frameLoadMore:
		cs.handleLoadMore(c, frame)
	case frameTyping:
		cs.handleTyping(c, frame)
	case frameChatMessage:
		cs.handleChatMessage(c, frame)
	case frameUnknown:
		c.queueFrame(newErrorFrame("Unknown message type: " + frame.rawType))
	}
}

// handleLoadMore replies to the requesting connection only, never the
// room.
func (cs *ChatServer) handleLoadMore(c *Client, frame inboundFrame) {
	messages, err := cs.store.ListMessagesBefore(c.roomId, frame.before, frame.limit)
	if err != nil {
		cs.log.Printf("session %s: list messages: %v", c.id, err)
		c.queueFrame(newErrorFrame("Failed to load messages"))
		return
	}

	c.queueFrame(newHistoryFrame(messages))
}

func (cs *ChatServer) handleTyping(c *Client, frame inboundFrame) {
	id, ok := c.identity.(Authenticated)
	if !ok {
		// typing events from anonymous visitors are dropped, not errors
		return
	}

	if !c.typing.allow(now()) {
		return
	}

	cs.broadcast(c.roomId, newTypingStatusFrame(id.Username, frame.isTyping))
}

func (cs *ChatServer) handleChatMessage(c *Client, frame inboundFrame) {
	id, ok := c.identity.(Authenticated)
	if !ok {
		c.queueFrame(newErrorFrame("You must be authenticated to send messages"))
		return
	}

	if !c.limiter.allow(now()) {
		cs.stats.Incr(MetricRateLimited)
		c.queueFrame(newErrorFrame("Rate limit exceeded. Please wait a moment."))
		return
	}

	msg, err := cs.store.CreateMessage(c.roomId, id.UserId, frame.message)
	if err != nil {
		cs.log.Printf("session %s: save message: %v", c.id, err)
		if errors.Is(err, sql.ErrNoRows) {
			c.queueFrame(newErrorFrame("Chat room does not exist"))
		} else {
			c.queueFrame(newErrorFrame("Failed to save message"))
		}
		return
	}

	cs.stats.Incr(MetricMessagesPersisted)

	// broadcast only after durable persistence; the receipt carries
	// the store-assigned timestamp
	cs.broadcast(c.roomId, newChatMessageFrame(msg))
	c.queueFrame(newReceiptFrame(msg))
}

func (cs *ChatServer) broadcast(roomId int, frame ServerFrame) {
	if err := cs.backbone.Publish(roomId, frame); err != nil {
		cs.log.Printf("broadcast to room %d: %v", roomId, err)
		return
	}
	cs.stats.Incr(MetricBroadcasts)
}

// broadcastPresence reports the intersection of the registry's online
// set with the room's durable membership roster, so a user removed
// from the room never shows as an online participant.
func (cs *ChatServer) broadcastPresence(roomId int) {
	participants, err := cs.store.GetRoomParticipantIds(roomId)
	if err != nil {
		cs.log.Printf("presence broadcast for room %d: %v", roomId, err)
		return
	}

	online := cs.presence.Online(roomId)

	members := make(map[int]struct{}, len(participants))
	for _, id := range participants {
		members[id] = struct{}{}
	}

	visible := make([]int, 0, len(online))
	for _, id := range online {
		if _, ok := members[id]; ok {
			visible = append(visible, id)
		}
	}
	sort.Ints(visible)

	cs.broadcast(roomId, newOnlineStatusFrame(visible))
}

// handleBackboneLost tears every session down after telling it why:
// broadcast correctness is gone with the backbone.
func (cs *ChatServer) handleBackboneLost(err error) {
	cs.clientsLock.Lock()
	clients := make([]*Client, 0, len(cs.clients))
	for c := range cs.clients {
		clients = append(clients, c)
	}
	cs.clientsLock.Unlock()

	for _, c := range clients {
		c.queueFrame(newBackboneDownFrame("Chat service connection lost. Please reconnect."))
		c.closeStop()
	}
}
