package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"unimarket/internal/domain"
)

const maxContentRunes = 5000

// MessageService owns the message lifecycle: send, read-state transitions,
// and deletion. Ownership failures surface as domain.ErrNotFound so callers
// can't probe for messages they aren't part of.
type MessageService struct {
	messages domain.MessageRepository
}

func NewMessageService(messages domain.MessageRepository) *MessageService {
	return &MessageService{messages: messages}
}

type SendInput struct {
	ReceiverID int64
	Content    string
	ListingID  *int64
	ImageURL   *string
}

// Send persists a new message and returns it enriched with the display
// fields of both parties and the referenced listing. The sender id always
// comes from the authenticated identity, never from the request body.
func (s *MessageService) Send(ctx context.Context, senderID int64, in SendInput) (*domain.EnrichedMessage, error) {
	if in.ReceiverID == 0 || in.Content == "" {
		return nil, fmt.Errorf("%w: receiver_id and content are required", domain.ErrInvalidInput)
	}
	if len([]rune(in.Content)) > maxContentRunes {
		return nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrInvalidInput, maxContentRunes)
	}

	msg := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		ListingID:  in.ListingID,
		Content:    in.Content,
		ImageURL:   in.ImageURL,
		IsRead:     false,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	enriched, err := s.messages.GetEnriched(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("enrich message: %w", err)
	}
	if enriched == nil {
		return nil, domain.ErrInternal
	}
	return enriched, nil
}

// MarkRead transitions one message to read. Only the receiver may do so;
// anyone else gets ErrNotFound. Re-reading an already-read message is a
// no-op success.
func (s *MessageService) MarkRead(ctx context.Context, messageID string, callerID int64) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	if msg == nil || msg.ReceiverID != callerID {
		return domain.ErrNotFound
	}
	if msg.IsRead {
		return nil
	}
	return s.messages.MarkRead(ctx, messageID)
}

// MarkConversationRead flips every unread message from otherID to callerID
// in one bulk statement and returns the number of rows transitioned.
// Concurrent calls commute: unread -> read is the only transition.
func (s *MessageService) MarkConversationRead(ctx context.Context, otherID, callerID int64) (int64, error) {
	return s.messages.MarkConversationRead(ctx, callerID, otherID)
}

// Delete hard-deletes a message. Only the original sender may delete;
// receivers and strangers both get ErrNotFound.
func (s *MessageService) Delete(ctx context.Context, messageID string, callerID int64) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	if msg == nil || msg.SenderID != callerID {
		return domain.ErrNotFound
	}
	return s.messages.Delete(ctx, messageID)
}
