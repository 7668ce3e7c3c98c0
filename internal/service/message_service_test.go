package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"unimarket/internal/domain"
	"unimarket/internal/service"
)

func TestSend(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockMessageRepo)
		svc := service.NewMessageService(mockRepo)

		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.ID != "" && m.SenderID == 1 && m.ReceiverID == 2 && !m.IsRead
		})).Return(nil)
		mockRepo.On("GetEnriched", mock.Anything, mock.AnythingOfType("string")).Return(&domain.EnrichedMessage{
			Message:      domain.Message{SenderID: 1, ReceiverID: 2, Content: "hi"},
			SenderName:   "alice",
			ReceiverName: "bob",
		}, nil)

		msg, err := svc.Send(context.Background(), 1, service.SendInput{
			ReceiverID: 2,
			Content:    "hi",
		})
		assert.NoError(t, err)
		assert.NotNil(t, msg)
		assert.Equal(t, "alice", msg.SenderName)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingContent", func(t *testing.T) {
		mockRepo := new(MockMessageRepo)
		svc := service.NewMessageService(mockRepo)

		_, err := svc.Send(context.Background(), 1, service.SendInput{ReceiverID: 2})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("MissingReceiver", func(t *testing.T) {
		mockRepo := new(MockMessageRepo)
		svc := service.NewMessageService(mockRepo)

		_, err := svc.Send(context.Background(), 1, service.SendInput{Content: "hi"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("SelfMessageAllowed", func(t *testing.T) {
		mockRepo := new(MockMessageRepo)
		svc := service.NewMessageService(mockRepo)

		mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mockRepo.On("GetEnriched", mock.Anything, mock.Anything).Return(&domain.EnrichedMessage{
			Message: domain.Message{SenderID: 1, ReceiverID: 1, Content: "note to self"},
		}, nil)

		msg, err := svc.Send(context.Background(), 1, service.SendInput{ReceiverID: 1, Content: "note to self"})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), msg.ReceiverID)
	})
}

func TestMarkRead(t *testing.T) {
	t.Run("ReceiverMarksUnread", func(t *testing.T) {
		mockRepo := new(MockMessageRepo)
		svc := service.NewMessageService(mockRepo)

		mockRepo.On("GetByID", mock.Anything, "m1").Return(&domain.Message{
			ID: "m1", SenderID: 1, ReceiverID: 2, IsRead: false,
		}, nil)
		mockRepo.On("MarkRead", mock.Anything, "m1").Return(nil)

		err := svc.MarkRead(context.Background(), "m1", 2)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("AlreadyReadIsNoop", func(t *testing.T) {
		mockRepo := new(MockMessageRepo)
		svc := service.NewMessageService(mockRepo)

		mockRepo.On("GetByID", mock.Anything, "m1").Return(&domain.Message{
			ID: "m1", SenderID: 1, ReceiverID: 2, IsRead: true,
		}, nil)

		err := svc.MarkRead(context.Background(), "m1", 2)
		assert.NoError(t, err)
		mockRepo.AssertNotCalled(t, "MarkRead")
	})

	t.Run("NonReceiverGetsNotFound", func(t *testing.T) {
		mockRepo := new(MockMessageRepo)
		svc := service.NewMessageService(mockRepo)

		mockRepo.On("GetByID", mock.Anything, "m1").Return(&domain.Message{
			ID: "m1", SenderID: 1, ReceiverID: 2,
		}, nil)

		// the sender may not mark their own message read, and the error
		// must not reveal that the message exists
		err := svc.MarkRead(context.Background(), "m1", 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		mockRepo.AssertNotCalled(t, "MarkRead")
	})

	t.Run("MissingMessage", func(t *testing.T) {
		mockRepo := new(MockMessageRepo)
		svc := service.NewMessageService(mockRepo)

		mockRepo.On("GetByID", mock.Anything, "nope").Return(nil, nil)

		err := svc.MarkRead(context.Background(), "nope", 2)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestMarkConversationRead(t *testing.T) {
	mockRepo := new(MockMessageRepo)
	svc := service.NewMessageService(mockRepo)

	mockRepo.On("MarkConversationRead", mock.Anything, int64(2), int64(1)).Return(int64(3), nil).Once()
	mockRepo.On("MarkConversationRead", mock.Anything, int64(2), int64(1)).Return(int64(0), nil).Once()

	// caller 2 reads everything from partner 1
	count, err := svc.MarkConversationRead(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// second call finds nothing left unread and still succeeds
	count, err = svc.MarkConversationRead(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDelete(t *testing.T) {
	t.Run("SenderDeletes", func(t *testing.T) {
		mockRepo := new(MockMessageRepo)
		svc := service.NewMessageService(mockRepo)

		mockRepo.On("GetByID", mock.Anything, "m1").Return(&domain.Message{
			ID: "m1", SenderID: 1, ReceiverID: 2,
		}, nil)
		mockRepo.On("Delete", mock.Anything, "m1").Return(nil)

		err := svc.Delete(context.Background(), "m1", 1)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ReceiverCannotDelete", func(t *testing.T) {
		mockRepo := new(MockMessageRepo)
		svc := service.NewMessageService(mockRepo)

		mockRepo.On("GetByID", mock.Anything, "m1").Return(&domain.Message{
			ID: "m1", SenderID: 1, ReceiverID: 2,
		}, nil)

		err := svc.Delete(context.Background(), "m1", 2)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		mockRepo.AssertNotCalled(t, "Delete")
	})
}
