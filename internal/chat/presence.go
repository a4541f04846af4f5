package chat

import (
	"log"
	"sync"
	"time"
)

const defaultSweepInterval = 5 * time.Minute

// PresenceRegistry tracks which authenticated users currently hold an
// open connection to each room. Entries are transient: the registry is
// reconstructable from nothing and loses everything on restart.
type PresenceRegistry struct {
	mu    sync.Mutex
	rooms map[int]map[int]int // roomId -> userId -> open connection count

	log           *log.Logger
	sweepInterval time.Duration
	stop          chan struct{}
	done          chan struct{}
}

func NewPresenceRegistry(logger *log.Logger, sweepInterval time.Duration) *PresenceRegistry {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	return &PresenceRegistry{
		rooms:         make(map[int]map[int]int),
		log:           logger,
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the single sweep goroutine owned by the registry.
func (p *PresenceRegistry) Start() {
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.sweep()
			case <-p.stop:
				return
			}
		}
	}()
}

func (p *PresenceRegistry) Stop() {
	close(p.stop)
	<-p.done
}

func (p *PresenceRegistry) Join(roomId, userId int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := p.rooms[roomId]
	if users == nil {
		users = make(map[int]int)
		p.rooms[roomId] = users
	}
	users[userId]++
}

// Leave drops one connection for the user; the user stays online while
// other connections remain. An emptied room key is removed.
func (p *PresenceRegistry) Leave(roomId, userId int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	users, ok := p.rooms[roomId]
	if !ok {
		return
	}

	if users[userId] <= 1 {
		delete(users, userId)
	} else {
		users[userId]--
	}

	if len(users) == 0 {
		delete(p.rooms, roomId)
	}
}

// Online returns the user ids currently connected to the room.
func (p *PresenceRegistry) Online(roomId int) []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := p.rooms[roomId]
	ids := make([]int, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}

	return ids
}

// sweep prunes phantom empty room entries left behind by races. It
// never touches a non-empty set.
func (p *PresenceRegistry) sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for roomId, users := range p.rooms {
		if len(users) == 0 {
			p.log.Printf("presence: sweeping empty room %d", roomId)
			delete(p.rooms, roomId)
		}
	}
}
