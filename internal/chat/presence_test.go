package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Powerisinschool/edupane-backend/internal/testutil"
)

func Test_PresenceRegistry_JoinLeaveOnline(t *testing.T) {
	p := NewPresenceRegistry(testutil.TestLogger(t), time.Minute)

	p.Join(7, 42)
	p.Join(7, 43)
	assert.ElementsMatch(t, []int{42, 43}, p.Online(7), "expected both users online")

	p.Leave(7, 42)
	assert.ElementsMatch(t, []int{43}, p.Online(7), "expected departed user gone")

	p.Leave(7, 43)
	assert.Empty(t, p.Online(7), "expected no users online")
	assert.NotContains(t, p.rooms, 7, "expected emptied room key to be removed")
}

func Test_PresenceRegistry_MultipleConnections(t *testing.T) {
	p := NewPresenceRegistry(testutil.TestLogger(t), time.Minute)

	// same user, two tabs
	p.Join(7, 42)
	p.Join(7, 42)

	p.Leave(7, 42)
	assert.ElementsMatch(t, []int{42}, p.Online(7), "user stays online while a connection remains")

	p.Leave(7, 42)
	assert.Empty(t, p.Online(7), "user offline once the last connection closes")
}

func Test_PresenceRegistry_LeaveUnknownRoom(t *testing.T) {
	p := NewPresenceRegistry(testutil.TestLogger(t), time.Minute)
	p.Leave(99, 1)
	assert.Empty(t, p.Online(99))
}

func Test_PresenceRegistry_sweep(t *testing.T) {
	p := NewPresenceRegistry(testutil.TestLogger(t), time.Minute)

	p.Join(1, 10)
	// phantom empty entry a racing disconnect could leave behind
	p.rooms[2] = make(map[int]int)

	p.sweep()

	assert.NotContains(t, p.rooms, 2, "expected empty room entry to be swept")
	assert.ElementsMatch(t, []int{10}, p.Online(1), "sweep must never touch a non-empty set")
}

func Test_PresenceRegistry_StartStop(t *testing.T) {
	p := NewPresenceRegistry(testutil.TestLogger(t), 10*time.Millisecond)
	p.rooms[5] = make(map[int]int)

	p.Start()
	assert.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		_, ok := p.rooms[5]
		return !ok
	}, time.Second, 5*time.Millisecond, "expected the sweeper to prune the empty room")

	p.Stop()
}

func Test_PresenceRegistry_ConcurrentAccess(t *testing.T) {
	p := NewPresenceRegistry(testutil.TestLogger(t), time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(userId int) {
			defer wg.Done()
			p.Join(1, userId)
			p.Online(1)
			p.Leave(1, userId)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, p.Online(1), "expected registry to drain cleanly under concurrency")
}
