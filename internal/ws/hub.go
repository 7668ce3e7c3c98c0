package ws

import (
	"fmt"
	"sync"
)

// Conn is the subset of a websocket connection the hub needs. Satisfied by
// *websocket.Conn.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Hub maps room names to sets of live connections. A user's personal room
// holds every connection they have open (multiple tabs/devices all receive
// the same fan-out); pairwise chat rooms are joined ad hoc over the socket.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[Conn]struct{}
	byConn map[Conn]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[Conn]struct{}),
		byConn: make(map[Conn]map[string]struct{}),
	}
}

// UserRoom names the personal room for a user id.
func UserRoom(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// PairRoom names the chat room shared by two users; the smaller id comes
// first so both sides derive the same name.
func PairRoom(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("chat:%d:%d", a, b)
}

// Join adds a connection to a room.
func (h *Hub) Join(room string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[Conn]struct{})
	}
	h.rooms[room][conn] = struct{}{}

	if h.byConn[conn] == nil {
		h.byConn[conn] = make(map[string]struct{})
	}
	h.byConn[conn][room] = struct{}{}
}

// Leave removes a connection from one room.
func (h *Hub) Leave(room string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, conn)
}

// LeaveAll removes a connection from every room it joined. Called on
// disconnect; other connections of the same user stay registered.
func (h *Hub) LeaveAll(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.byConn[conn] {
		h.leaveLocked(room, conn)
	}
}

func (h *Hub) leaveLocked(room string, conn Conn) {
	if conns, ok := h.rooms[room]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.byConn[conn]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(h.byConn, conn)
		}
	}
}

// RoomSize reports how many connections are in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast sends the payload to every connection in the room. Delivery is
// best-effort: a failed write closes that connection and moves on.
func (h *Hub) Broadcast(room string, payload any) {
	h.BroadcastExcept(room, nil, payload)
}

// BroadcastExcept sends the payload to everyone in the room but the given
// connection (the typing relay and the direct-broadcast path skip the
// sender).
func (h *Hub) BroadcastExcept(room string, except Conn, payload any) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.rooms[room]))
	for conn := range h.rooms[room] {
		if conn != except {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.WriteJSON(payload); err != nil {
			conn.Close()
			// stale entries are cleaned up by LeaveAll on disconnect
		}
	}
}
