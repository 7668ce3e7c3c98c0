package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	mu     sync.Mutex
	events []any
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestRoomNames(t *testing.T) {
	assert.Equal(t, "user:42", UserRoom(42))
	// both sides derive the same pair room regardless of argument order
	assert.Equal(t, PairRoom(7, 3), PairRoom(3, 7))
	assert.Equal(t, "chat:3:7", PairRoom(7, 3))
}

func TestJoinAndBroadcast(t *testing.T) {
	hub := NewHub()
	tab1, tab2, other := &fakeConn{}, &fakeConn{}, &fakeConn{}

	// one user, two tabs; a different user elsewhere
	hub.Join(UserRoom(1), tab1)
	hub.Join(UserRoom(1), tab2)
	hub.Join(UserRoom(2), other)

	hub.Broadcast(UserRoom(1), map[string]any{"type": "new_message"})

	assert.Equal(t, 1, tab1.received())
	assert.Equal(t, 1, tab2.received())
	assert.Equal(t, 0, other.received())
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(UserRoom(99), map[string]any{"type": "new_message"})
	assert.Equal(t, 0, hub.RoomSize(UserRoom(99)))
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	hub := NewHub()
	sender, receiver := &fakeConn{}, &fakeConn{}
	room := PairRoom(1, 2)

	hub.Join(room, sender)
	hub.Join(room, receiver)

	hub.BroadcastExcept(room, sender, map[string]any{"type": "user_typing"})

	assert.Equal(t, 0, sender.received())
	assert.Equal(t, 1, receiver.received())
}

func TestLeaveKeepsOtherConnections(t *testing.T) {
	hub := NewHub()
	tab1, tab2 := &fakeConn{}, &fakeConn{}

	hub.Join(UserRoom(1), tab1)
	hub.Join(UserRoom(1), tab2)
	hub.Leave(UserRoom(1), tab1)

	// the user stays present while another tab remains
	assert.Equal(t, 1, hub.RoomSize(UserRoom(1)))

	hub.Broadcast(UserRoom(1), map[string]any{"type": "new_message"})
	assert.Equal(t, 0, tab1.received())
	assert.Equal(t, 1, tab2.received())
}

func TestLeaveAllRemovesEveryMembership(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}

	hub.Join(UserRoom(1), conn)
	hub.Join(PairRoom(1, 2), conn)
	hub.LeaveAll(conn)

	assert.Equal(t, 0, hub.RoomSize(UserRoom(1)))
	assert.Equal(t, 0, hub.RoomSize(PairRoom(1, 2)))
}

func TestConcurrentJoinLeave(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := &fakeConn{}
			room := UserRoom(int64(i % 5))
			hub.Join(room, conn)
			hub.Broadcast(room, map[string]any{"type": "new_message"})
			hub.LeaveAll(conn)
		}(i)
	}
	wg.Wait()

	for i := int64(0); i < 5; i++ {
		assert.Equal(t, 0, hub.RoomSize(UserRoom(i)))
	}
}
