package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clique/internal/domain"
)

type friendService struct {
	friendshipRepo domain.FriendshipRepository
	requestRepo    domain.FriendRequestRepository
	userRepo       domain.UserRepository
	notifier       domain.Notifier
	publisher      domain.UpdatePublisher
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewFriendService(
	friendshipRepo domain.FriendshipRepository,
	requestRepo domain.FriendRequestRepository,
	userRepo domain.UserRepository,
	notifier domain.Notifier,
	publisher domain.UpdatePublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.FriendService {
	return &friendService{
		friendshipRepo: friendshipRepo,
		requestRepo:    requestRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		publisher:      publisher,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *friendService) SendRequest(ctx context.Context, senderID, receiverID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if senderID == receiverID {
		return fmt.Errorf("%w: cannot friend yourself", domain.ErrInvalidInput)
	}
	if _, err := s.userRepo.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("get receiver: %w", err)
	}

	friends, err := s.friendshipRepo.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		return domain.ErrAlreadyFriends
	}
	if _, err := s.requestRepo.GetBetween(ctx, senderID, receiverID); err == nil {
		return domain.ErrRequestPending
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check pending request: %w", err)
	}

	req := &domain.FriendRequest{SenderID: senderID, ReceiverID: receiverID, CreatedAt: time.Now()}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return fmt.Errorf("create friend request: %w", err)
	}

	s.publisher.Publish(domain.Update{Kind: domain.UpdateRequestCreated, Request: req})
	s.dispatch(ctx, domain.Notification{
		RecipientID: receiverID,
		Title:       "Friend request",
		Message:     fmt.Sprintf("%s sent you a friend request", s.displayName(ctx, senderID)),
		DeepLink:    &domain.DeepLink{Route: domain.RouteFriendsTab, Section: "requests"},
	})
	return nil
}

func (s *friendService) CancelRequest(ctx context.Context, callerID, otherID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	req, err := s.requestRepo.GetBetween(ctx, callerID, otherID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get friend request: %w", err)
	}
	if req.SenderID != callerID && req.ReceiverID != callerID {
		return domain.ErrForbidden
	}
	if err := s.requestRepo.Delete(ctx, req.SenderID, req.ReceiverID); err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	s.publisher.Publish(domain.Update{
		Kind:  domain.UpdateRequestDeleted,
		UserA: req.SenderID,
		UserB: req.ReceiverID,
	})
	return nil
}

func (s *friendService) AcceptRequest(ctx context.Context, receiverID, senderID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	req, err := s.requestRepo.GetBetween(ctx, senderID, receiverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get friend request: %w", err)
	}
	if req.ReceiverID != receiverID {
		return domain.ErrForbidden
	}

	// Add writes both adjacency rows and clears the pending request in one
	// transaction, so the request can never survive the edge.
	if err := s.friendshipRepo.Add(ctx, receiverID, senderID); err != nil {
		return fmt.Errorf("add friendship: %w", err)
	}

	s.publisher.Publish(domain.Update{
		Kind:  domain.UpdateRequestDeleted,
		UserA: req.SenderID,
		UserB: req.ReceiverID,
	})
	s.publisher.Publish(domain.Update{
		Kind:  domain.UpdateFriendAdded,
		UserA: receiverID,
		UserB: senderID,
	})
	s.dispatch(ctx, domain.Notification{
		RecipientID: senderID,
		Title:       "Friend request accepted",
		Message:     fmt.Sprintf("%s accepted your friend request", s.displayName(ctx, receiverID)),
		DeepLink:    &domain.DeepLink{Route: domain.RouteFriendsTab, Section: "friends"},
	})
	return nil
}

func (s *friendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	friends, err := s.friendshipRepo.AreFriends(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("check friendship: %w", err)
	}
	if !friends {
		return domain.ErrNotFound
	}
	if err := s.friendshipRepo.Remove(ctx, userID, friendID); err != nil {
		return fmt.Errorf("remove friendship: %w", err)
	}
	s.publisher.Publish(domain.Update{
		Kind:  domain.UpdateFriendRemoved,
		UserA: userID,
		UserB: friendID,
	})
	return nil
}

func (s *friendService) ListFriends(ctx context.Context, userID string) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ids, err := s.friendshipRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return s.resolveUsers(ctx, ids), nil
}

func (s *friendService) ListReceivedRequests(ctx context.Context, userID string) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reqs, err := s.requestRepo.ListReceived(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list received requests: %w", err)
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.SenderID)
	}
	return s.resolveUsers(ctx, ids), nil
}

func (s *friendService) ListSentRequests(ctx context.Context, userID string) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reqs, err := s.requestRepo.ListSent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sent requests: %w", err)
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ReceiverID)
	}
	return s.resolveUsers(ctx, ids), nil
}

func (s *friendService) StateBetween(ctx context.Context, userID, otherID string) (domain.PairState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	friends, err := s.friendshipRepo.AreFriends(ctx, userID, otherID)
	if err != nil {
		return domain.PairNone, fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		return domain.PairFriends, nil
	}
	req, err := s.requestRepo.GetBetween(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PairNone, nil
		}
		return domain.PairNone, fmt.Errorf("check pending request: %w", err)
	}
	if req.SenderID == userID {
		return domain.PairRequestSent, nil
	}
	return domain.PairRequestReceived, nil
}

// resolveUsers looks up each id, skipping accounts deleted since the edge was
// written.
func (s *friendService) resolveUsers(ctx context.Context, ids []string) []*domain.User {
	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("resolve user failed", "user_id", id, "err", err)
			}
			continue
		}
		users = append(users, u)
	}
	return users
}

func (s *friendService) dispatch(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Warn("notification dispatch failed", "recipient", n.RecipientID, "err", err)
	}
}

func (s *friendService) displayName(ctx context.Context, userID string) string {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return "Someone"
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
