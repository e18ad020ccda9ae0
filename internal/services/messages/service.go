package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUserNotFound = errors.New("user not found")
	ErrSelfMessage  = errors.New("cannot message yourself")
)

const maxMessageLength = 4000

type Store interface {
	Create(ctx context.Context, senderID, receiverID int64, content string) (model.Message, error)
	Conversation(ctx context.Context, userA, userB int64, limit, offset int) ([]model.Message, error)
	MarkConversationRead(ctx context.Context, readerID, peerID int64) (int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Send(ctx context.Context, senderID, receiverID int64, content string) (model.Message, error) {
	if senderID <= 0 || receiverID <= 0 {
		return model.Message{}, ErrValidation
	}
	if senderID == receiverID {
		return model.Message{}, ErrSelfMessage
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Message{}, fmt.Errorf("%w: message cannot be empty", ErrValidation)
	}
	if len(content) > maxMessageLength {
		return model.Message{}, fmt.Errorf("%w: message too long", ErrValidation)
	}

	msg, err := s.store.Create(ctx, senderID, receiverID, content)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.Message{}, ErrUserNotFound
		}
		return model.Message{}, fmt.Errorf("send message: %w", err)
	}
	return msg, nil
}

// Conversation returns the thread newest-first and marks the peer's messages
// as read for the requesting user.
func (s *Service) Conversation(ctx context.Context, userID, peerID int64, limit, offset int) ([]model.Message, error) {
	if userID <= 0 || peerID <= 0 || userID == peerID {
		return nil, ErrValidation
	}

	msgs, err := s.store.Conversation(ctx, userID, peerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if _, err := s.store.MarkConversationRead(ctx, userID, peerID); err != nil {
		return nil, fmt.Errorf("mark conversation read: %w", err)
	}
	return msgs, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrValidation
	}

	count, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
