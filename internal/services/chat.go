package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teris-io/shortid"

	"clique/internal/domain"
)

type chatService struct {
	chatRepo       domain.ChatRepository
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	notifier       domain.Notifier
	publisher      domain.UpdatePublisher
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewChatService(
	chatRepo domain.ChatRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	notifier domain.Notifier,
	publisher domain.UpdatePublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ChatService {
	return &chatService{
		chatRepo:       chatRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		publisher:      publisher,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *chatService) PostMessage(ctx context.Context, eventID, senderID, body string) (*domain.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: empty message body", domain.ErrInvalidInput)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	// Participants are snapshotted at send time; users invited later do not
	// inherit unread counts for older messages.
	participants := event.Participants()
	if !contains(participants, senderID) {
		return nil, domain.ErrForbidden
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("get sender: %w", err)
	}

	id, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}
	senderName := sender.FullName
	if senderName == "" {
		senderName = sender.Username
	}
	msg := &domain.ChatMessage{
		ID:         id,
		EventID:    eventID,
		SenderID:   senderID,
		SenderName: senderName,
		Body:       body,
		CreatedAt:  time.Now(),
	}
	if err := s.chatRepo.AppendMessage(ctx, msg, participants); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	s.publisher.Publish(domain.Update{Kind: domain.UpdateChatMessage, EventID: eventID, Message: msg})

	link := &domain.DeepLink{Route: domain.RouteEventDetail, EventID: eventID, OpenChat: true}
	for _, userID := range participants {
		if userID == senderID {
			continue
		}
		s.dispatch(ctx, domain.Notification{
			RecipientID: userID,
			Title:       event.Title,
			Message:     fmt.Sprintf("%s: %s", senderName, body),
			DeepLink:    link,
		})
	}
	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, eventID, callerID string, params domain.PaginationParams) ([]*domain.ChatMessage, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireParticipant(ctx, eventID, callerID); err != nil {
		return nil, 0, err
	}
	msgs, total, err := s.chatRepo.ListMessages(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []*domain.ChatMessage{}
	}
	return msgs, total, nil
}

func (s *chatService) GetMetadata(ctx context.Context, eventID, callerID string) (*domain.ChatMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.requireParticipant(ctx, eventID, callerID); err != nil {
		return nil, err
	}
	meta, err := s.chatRepo.GetMetadata(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get chat metadata: %w", err)
	}
	return meta, nil
}

func (s *chatService) MarkRead(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.chatRepo.MarkRead(ctx, eventID, userID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *chatService) UnreadCount(ctx context.Context, eventID, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.chatRepo.UnreadCount(ctx, eventID, userID)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

func (s *chatService) TotalUnread(ctx context.Context, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.chatRepo.TotalUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("total unread: %w", err)
	}
	return n, nil
}

func (s *chatService) requireParticipant(ctx context.Context, eventID, userID string) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if !contains(event.Participants(), userID) {
		return domain.ErrForbidden
	}
	return nil
}

func (s *chatService) dispatch(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Warn("notification dispatch failed", "recipient", n.RecipientID, "err", err)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
