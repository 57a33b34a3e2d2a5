package session

import (
	"context"
	"fmt"
	"sync"

	"clique/internal/domain"
)

// Store is a concurrency-safe holder for one user's current Snapshot. Writers
// fold updates in through Apply; readers get value copies and can hold them
// across lock boundaries.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStore(snap Snapshot) *Store {
	return &Store{snap: snap}
}

// Current returns the latest snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Apply folds the update in and returns the resulting snapshot.
func (s *Store) Apply(u domain.Update) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Apply(s.snap, u)
	return s.snap
}

// MarkRead zeroes the unread count for the event and returns the result.
func (s *Store) MarkRead(eventID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = MarkRead(s.snap, eventID)
	return s.snap
}

// Load builds the initial snapshot for a user from storage: their events,
// friends, pending requests, and per-event unread counts.
func Load(
	ctx context.Context,
	userID string,
	eventRepo domain.EventRepository,
	friendshipRepo domain.FriendshipRepository,
	requestRepo domain.FriendRequestRepository,
	chatRepo domain.ChatRepository,
) (Snapshot, error) {
	snap := NewSnapshot(userID)

	events, err := eventRepo.ListForUser(ctx, userID)
	if err != nil {
		return snap, fmt.Errorf("load events: %w", err)
	}
	for _, e := range events {
		snap = Apply(snap, domain.Update{Kind: domain.UpdateEventUpserted, Event: e})
	}

	friends, err := friendshipRepo.ListFriends(ctx, userID)
	if err != nil {
		return snap, fmt.Errorf("load friends: %w", err)
	}
	snap.Friends = friends

	received, err := requestRepo.ListReceived(ctx, userID)
	if err != nil {
		return snap, fmt.Errorf("load received requests: %w", err)
	}
	snap.Received = received

	sent, err := requestRepo.ListSent(ctx, userID)
	if err != nil {
		return snap, fmt.Errorf("load sent requests: %w", err)
	}
	snap.Sent = sent

	unread := make(map[string]int)
	for _, e := range events {
		n, err := chatRepo.UnreadCount(ctx, e.ID, userID)
		if err != nil {
			return snap, fmt.Errorf("load unread count: %w", err)
		}
		if n > 0 {
			unread[e.ID] = n
		}
	}
	snap.Unread = unread
	return snap, nil
}
