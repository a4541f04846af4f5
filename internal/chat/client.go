package chat

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Powerisinschool/edupane-backend/internal/database"
	"github.com/Powerisinschool/edupane-backend/internal/stats"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one connection session, bound to a single room for its
// lifetime. The read loop owns the rate limiter and typing throttle;
// the buffered send channel decouples broadcasters from the socket.
type Client struct {
	id       string
	conn     *websocket.Conn
	server   *ChatServer
	log      *log.Logger
	stats    stats.StatsProvider
	identity Identity

	roomId       int
	roomExternal string

	send     chan ServerFrame
	stop     chan struct{}
	stopOnce sync.Once

	limiter *rateLimiter
	typing  *typingThrottle
	// presenceJoined records whether this session registered in the
	// presence registry, so close unwinds exactly what open did.
	presenceJoined bool
}

// NewClient binds a fresh session to the server's collaborators.
func (cs *ChatServer) NewClient(identity Identity, room database.Room, conn *websocket.Conn) *Client {
	return NewClient(identity, room, conn, cs, cs.log, cs.stats)
}

func NewClient(identity Identity, room database.Room, conn *websocket.Conn, server *ChatServer, logger *log.Logger, sp stats.StatsProvider) *Client {
	return &Client{
		id:           uuid.NewString(),
		conn:         conn,
		server:       server,
		log:          logger,
		stats:        sp,
		identity:     identity,
		roomId:       room.Id,
		roomExternal: room.ExternalId,
		send:         make(chan ServerFrame, 256),
		stop:         make(chan struct{}),
		limiter:      newRateLimiter(),
		typing:       newTypingThrottle(),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}

			if !c.writeFrame(frame) {
				return
			}
		case <-c.stop:
			// flush whatever was queued before the stop, then go
			for {
				select {
				case frame := <-c.send:
					if !c.writeFrame(frame) {
						return
					}
				default:
					return
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeFrame(frame ServerFrame) bool {
	bytes, err := encodeFrame(frame)
	if err != nil {
		c.log.Printf("session %s: encode frame: %v", c.id, err)
		return true
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, bytes); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("session %s: write: %v", c.id, err)
		}
		return false
	}

	return true
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.server.Disconnect(c)
		c.closeStop()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("session %s: read: %v", c.id, err)
			}
			break
		}

		frame, err := parseInboundFrame(raw)
		if err != nil {
			c.log.Printf("session %s: %v", c.id, err)
			c.queueFrame(newErrorFrame("Invalid message format"))
			continue
		}

		c.server.handleFrame(c, frame)
	}
}

// queueFrame enqueues without blocking; a full buffer drops the frame
// and the session's own disconnect path handles a dead peer.
func (c *Client) queueFrame(frame ServerFrame) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeStop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
