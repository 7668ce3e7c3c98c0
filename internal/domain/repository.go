package domain

import "context"

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	GetEnriched(ctx context.Context, id string) (*EnrichedMessage, error)
	// ListForUser returns every message the user sent or received, newest
	// first (id breaks timestamp ties so the order is stable).
	ListForUser(ctx context.Context, userID int64) ([]*Message, error)
	ListThread(ctx context.Context, userID, otherID int64, limit, offset int) ([]*EnrichedMessage, error)
	ListForListing(ctx context.Context, userID, listingID int64) ([]*EnrichedMessage, error)
	MarkRead(ctx context.Context, id string) error
	// MarkConversationRead flips every unread message from senderID to
	// receiverID in one statement and reports how many rows changed.
	MarkConversationRead(ctx context.Context, receiverID, senderID int64) (int64, error)
	CountUnread(ctx context.Context, receiverID int64) (int, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the account operations the messaging core needs.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*User, error)
}

// ListingRepository is the read model for the externally-owned listings.
type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id int64) (*Listing, error)
}
