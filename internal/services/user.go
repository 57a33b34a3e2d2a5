package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clique/internal/domain"
)

type userService struct {
	userRepo       domain.UserRepository
	eventRepo      domain.EventRepository
	publisher      domain.UpdatePublisher
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewUserService(
	userRepo domain.UserRepository,
	eventRepo domain.EventRepository,
	publisher domain.UpdatePublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.UserService {
	return &userService{
		userRepo:       userRepo,
		eventRepo:      eventRepo,
		publisher:      publisher,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

func (s *userService) ListAll(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

func (s *userService) Search(ctx context.Context, query string, params domain.PaginationParams) ([]*domain.User, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	users, total, err := s.userRepo.Search(ctx, query, params)
	if err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, total, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID, fullName, phone, avatarURL string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if fullName != "" {
		user.FullName = fullName
	}
	if phone != "" {
		normalized, err := domain.NormalizePhone(phone)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid phone number", domain.ErrInvalidInput)
		}
		user.Phone = normalized
	}
	if avatarURL != "" {
		user.AvatarURL = avatarURL
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	// A newly attached phone number may have pending event invitations.
	if phone != "" {
		eventIDs, err := s.eventRepo.ClaimPhoneInvites(ctx, user.Phone, user.ID)
		if err != nil {
			s.logger.Warn("claim phone invites failed", "user_id", user.ID, "err", err)
		} else {
			s.publishEventUpdates(ctx, eventIDs)
		}
	}
	return user, nil
}

func (s *userService) DeleteAccount(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Hosted events go with the account. Attendance rows, friendships, and
	// friend requests are removed by foreign keys on the user row.
	events, err := s.eventRepo.ListForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list hosted events: %w", err)
	}
	for _, event := range events {
		if event.HostID != userID {
			continue
		}
		if err := s.eventRepo.Delete(ctx, event.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete hosted event: %w", err)
		}
		s.publisher.Publish(domain.Update{Kind: domain.UpdateEventDeleted, EventID: event.ID})
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *userService) publishEventUpdates(ctx context.Context, eventIDs []string) {
	for _, id := range eventIDs {
		event, err := s.eventRepo.GetByID(ctx, id)
		if err != nil {
			continue
		}
		s.publisher.Publish(domain.Update{Kind: domain.UpdateEventUpserted, Event: event})
	}
}
