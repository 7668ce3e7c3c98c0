package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"unimarket/internal/domain"
)

// ConversationService derives the conversation views. There is no
// conversation table: everything here is folded from the message store per
// request, so there is no cache to invalidate.
type ConversationService struct {
	messages domain.MessageRepository
	users    domain.UserRepository
	listings domain.ListingRepository

	defaultPageSize int
}

func NewConversationService(messages domain.MessageRepository, users domain.UserRepository, listings domain.ListingRepository, defaultPageSize int) *ConversationService {
	if defaultPageSize <= 0 {
		defaultPageSize = 50
	}
	return &ConversationService{
		messages:        messages,
		users:           users,
		listings:        listings,
		defaultPageSize: defaultPageSize,
	}
}

// ListConversations folds the user's messages (newest first) into one
// summary per partner: the first message seen for a partner supplies the
// summary fields, and unread incoming messages accumulate the counter.
// Output order is map iteration order; callers wanting a stable order sort
// by LastMessageAt.
func (s *ConversationService) ListConversations(ctx context.Context, userID int64) ([]*domain.ConversationSummary, error) {
	msgs, err := s.messages.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	byPartner := make(map[int64]*domain.ConversationSummary)
	for _, m := range msgs {
		partner := m.PartnerOf(userID)
		summary, ok := byPartner[partner]
		if !ok {
			summary = &domain.ConversationSummary{
				PartnerID:     partner,
				LastMessage:   m.Content,
				LastMessageAt: m.CreatedAt,
			}
			byPartner[partner] = summary
		}
		if m.ReceiverID == userID && !m.IsRead {
			summary.UnreadCount++
		}
	}
	if len(byPartner) == 0 {
		return []*domain.ConversationSummary{}, nil
	}

	partners, err := s.users.ListByIDs(ctx, lo.Keys(byPartner))
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	for _, u := range partners {
		if summary, ok := byPartner[u.ID]; ok {
			summary.PartnerName = u.Username
			summary.PartnerAvatar = u.AvatarURL
		}
	}

	return lo.Values(byPartner), nil
}

// UnreadTotal counts every unread message addressed to the user.
func (s *ConversationService) UnreadTotal(ctx context.Context, userID int64) (int, error) {
	return s.messages.CountUnread(ctx, userID)
}

// ListThread returns one page of the pair conversation, newest first.
// Clients wanting chronological display reverse the page themselves.
func (s *ConversationService) ListThread(ctx context.Context, userID, otherID int64, page, limit int) ([]*domain.EnrichedMessage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = s.defaultPageSize
	}
	msgs, err := s.messages.ListThread(ctx, userID, otherID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list thread: %w", err)
	}
	if msgs == nil {
		msgs = []*domain.EnrichedMessage{}
	}
	return msgs, nil
}

// ListListingThread groups the caller's messages about one listing by
// conversation partner, newest first within each group. An unknown or
// deleted listing just yields an empty result with a nil listing; the
// reference is advisory.
func (s *ConversationService) ListListingThread(ctx context.Context, userID, listingID int64) (*domain.Listing, map[int64][]*domain.EnrichedMessage, error) {
	msgs, err := s.messages.ListForListing(ctx, userID, listingID)
	if err != nil {
		return nil, nil, fmt.Errorf("list listing messages: %w", err)
	}
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, nil, fmt.Errorf("get listing: %w", err)
	}
	grouped := lo.GroupBy(msgs, func(m *domain.EnrichedMessage) int64 {
		return m.PartnerOf(userID)
	})
	return listing, grouped, nil
}
