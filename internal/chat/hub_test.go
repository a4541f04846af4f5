package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Powerisinschool/edupane-backend/internal/testutil"
)

func newHubClient(buffer int) *Client {
	return &Client{id: "test-session", send: make(chan ServerFrame, buffer)}
}

func Test_Hub_Dispatch(t *testing.T) {
	h := NewHub(testutil.TestLogger(t))

	a := newHubClient(4)
	b := newHubClient(4)
	other := newHubClient(4)

	h.AddMember(1, a)
	h.AddMember(1, b)
	h.AddMember(2, other)

	h.Dispatch(1, newErrorFrame("ping"))

	assert.Len(t, a.send, 1, "member receives the frame exactly once")
	assert.Len(t, b.send, 1)
	assert.Empty(t, other.send, "other rooms must not receive the frame")
}

func Test_Hub_DispatchUnknownRoom(t *testing.T) {
	h := NewHub(testutil.TestLogger(t))
	h.Dispatch(42, newErrorFrame("ping"))
}

func Test_Hub_RemoveMember(t *testing.T) {
	h := NewHub(testutil.TestLogger(t))

	a := newHubClient(4)
	b := newHubClient(4)
	h.AddMember(1, a)
	h.AddMember(1, b)

	h.RemoveMember(1, a)
	h.Dispatch(1, newErrorFrame("ping"))

	assert.Empty(t, a.send, "removed member must not receive frames")
	assert.Len(t, b.send, 1)

	h.RemoveMember(1, b)
	assert.NotContains(t, h.rooms, 1, "emptied room key is removed")

	// removing twice is harmless
	h.RemoveMember(1, b)
}

func Test_Hub_SlowConsumerDropsFrame(t *testing.T) {
	h := NewHub(testutil.TestLogger(t))

	slow := newHubClient(1)
	fast := newHubClient(4)
	h.AddMember(1, slow)
	h.AddMember(1, fast)

	slow.send <- newErrorFrame("backlog")

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Dispatch(1, newErrorFrame("ping"))
	}()

	select {
	case <-done:
	case <-timeout(t):
		t.Fatal("Dispatch blocked on a slow consumer")
	}

	assert.Len(t, slow.send, 1, "frame for the full buffer is dropped")
	assert.Len(t, fast.send, 1, "healthy member still receives the frame")
}
