package domain

import "time"

// User is the externally-owned account entity. The messaging core only reads
// the display fields it needs for message enrichment; account lifecycle
// belongs to the wider marketplace.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          *string   `db:"email" json:"email,omitempty"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	AvatarURL      *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Listing is the externally-owned marketplace listing. Messages may carry a
// weak reference to one; the core never enforces its existence.
type Listing struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	Title     string    `db:"title" json:"title"`
	ImageURL  *string   `db:"image_url" json:"image_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Message is the only durable entity owned by this core. The read flag moves
// unread -> read and never back.
type Message struct {
	ID         string    `db:"id" json:"id"`
	SenderID   int64     `db:"sender_id" json:"sender_id"`
	ReceiverID int64     `db:"receiver_id" json:"receiver_id"`
	ListingID  *int64    `db:"listing_id" json:"listing_id,omitempty"`
	Content    string    `db:"content" json:"content"`
	ImageURL   *string   `db:"image_url" json:"image_url,omitempty"`
	IsRead     bool      `db:"is_read" json:"is_read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// EnrichedMessage is a Message denormalized with sender/receiver/listing
// display fields at read time. The listing fields stay empty when the
// referenced listing is gone.
type EnrichedMessage struct {
	Message
	SenderName     string  `json:"sender_name"`
	SenderAvatar   *string `json:"sender_avatar,omitempty"`
	ReceiverName   string  `json:"receiver_name"`
	ReceiverAvatar *string `json:"receiver_avatar,omitempty"`
	ListingTitle   *string `json:"listing_title,omitempty"`
	ListingImage   *string `json:"listing_image,omitempty"`
}

// ConversationSummary is the derived per-partner view returned by the
// aggregator. There is no backing table; it is folded from messages on every
// request.
type ConversationSummary struct {
	PartnerID     int64     `json:"partner_id"`
	PartnerName   string    `json:"partner_name"`
	PartnerAvatar *string   `json:"partner_avatar,omitempty"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_time"`
	UnreadCount   int       `json:"unread_count"`
}

// PartnerOf returns the other party of the message from u's point of view.
func (m *Message) PartnerOf(u int64) int64 {
	if m.SenderID == u {
		return m.ReceiverID
	}
	return m.SenderID
}
