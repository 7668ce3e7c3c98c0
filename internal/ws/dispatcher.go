package ws

import (
	"log/slog"

	"unimarket/internal/domain"
)

// Dispatcher pushes persisted messages to the receiver's live connections.
// Delivery is at-most-once: the message store already holds the truth, so a
// receiver with no connections simply catches up on the next fetch.
type Dispatcher struct {
	hub *Hub
	log *slog.Logger
}

func NewDispatcher(hub *Hub, log *slog.Logger) *Dispatcher {
	return &Dispatcher{hub: hub, log: log}
}

// NewMessage fans the enriched message out to the receiver's personal room.
// Never returns an error: fan-out failures must not reach the HTTP caller.
func (d *Dispatcher) NewMessage(msg *domain.EnrichedMessage) {
	room := UserRoom(msg.ReceiverID)
	if d.hub.RoomSize(room) == 0 {
		return
	}
	d.hub.Broadcast(room, map[string]any{
		"type":    "new_message",
		"message": msg,
	})
	d.log.Debug("fanned out message",
		"message_id", msg.ID,
		"receiver_id", msg.ReceiverID,
	)
}
