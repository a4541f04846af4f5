package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Backbone carries room broadcasts between the hub's publishers and
// its local dispatch. The local backbone is a direct call; the Redis
// backbone lets multiple processes share one room space.
type Backbone interface {
	Publish(roomId int, frame ServerFrame) error
	Start() error
	Close() error
}

type LocalBackbone struct {
	hub *Hub
}

func NewLocalBackbone(hub *Hub) *LocalBackbone {
	return &LocalBackbone{hub: hub}
}

func (b *LocalBackbone) Publish(roomId int, frame ServerFrame) error {
	b.hub.Dispatch(roomId, frame)
	return nil
}

func (b *LocalBackbone) Start() error { return nil }
func (b *LocalBackbone) Close() error { return nil }

const backboneChannel = "edupane.chat.broadcast"

type backboneEnvelope struct {
	RoomId  int             `json:"room_id"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBackbone relays broadcasts over a Redis pub/sub channel.
// Subscription loss is fatal for every session it serves: broadcast
// correctness cannot be guaranteed without it.
type RedisBackbone struct {
	rdb    *redis.Client
	hub    *Hub
	log    *log.Logger
	onLost func(error)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisBackbone(addr string, hub *Hub, logger *log.Logger, onLost func(error)) *RedisBackbone {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBackbone{
		rdb:    redis.NewClient(&redis.Options{Addr: addr}),
		hub:    hub,
		log:    logger,
		onLost: onLost,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (b *RedisBackbone) Publish(roomId int, frame ServerFrame) error {
	payload, err := encodeFrame(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	env, err := json.Marshal(backboneEnvelope{RoomId: roomId, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	return b.rdb.Publish(b.ctx, backboneChannel, env).Err()
}

func (b *RedisBackbone) Start() error {
	if err := b.rdb.Ping(b.ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	pubsub := b.rdb.Subscribe(b.ctx, backboneChannel)
	if _, err := pubsub.Receive(b.ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer close(b.done)
		defer pubsub.Close()

		for {
			msg, err := pubsub.ReceiveMessage(b.ctx)
			if err != nil {
				if b.ctx.Err() != nil {
					return
				}
				b.log.Println("backbone: subscription lost:", err)
				if b.onLost != nil {
					b.onLost(err)
				}
				return
			}

			var env backboneEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Println("backbone: bad envelope:", err)
				continue
			}

			b.hub.Dispatch(env.RoomId, rawFrame(env.Payload))
		}
	}()

	return nil
}

func (b *RedisBackbone) Close() error {
	b.cancel()
	<-b.done
	return b.rdb.Close()
}
