// Package session maintains the per-user client state mirrored over the
// realtime connection. State is held as an immutable Snapshot; every change
// arrives as a domain.Update and is folded in by Apply, which returns a new
// Snapshot and never mutates its input. Connection handlers can therefore hand
// snapshots to encoders without locking.
package session

import (
	"sort"

	"clique/internal/domain"
)

// Snapshot is one user's view of the system at a point in time. All slices and
// maps are owned by the snapshot; Apply copies before changing them.
type Snapshot struct {
	UserID string

	Events   []*domain.Event // sorted by StartTime, then ID
	Friends  []string
	Received []*domain.FriendRequest
	Sent     []*domain.FriendRequest

	// Unread chat counts per event id, for this user.
	Unread map[string]int
}

// NewSnapshot returns an empty snapshot for the user.
func NewSnapshot(userID string) Snapshot {
	return Snapshot{UserID: userID}
}

// TotalUnread sums unread counts across all event chats.
func (s Snapshot) TotalUnread() int {
	total := 0
	for _, n := range s.Unread {
		total += n
	}
	return total
}

// EventByID returns the event with the given id, or nil.
func (s Snapshot) EventByID(id string) *domain.Event {
	for _, e := range s.Events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// IsFriend reports whether the given user is in the friends list.
func (s Snapshot) IsFriend(userID string) bool {
	for _, id := range s.Friends {
		if id == userID {
			return true
		}
	}
	return false
}

// Apply folds one update into the snapshot and returns the result. Updates
// not relevant to the snapshot's user return the input unchanged. The input
// snapshot is never modified.
func Apply(s Snapshot, u domain.Update) Snapshot {
	switch u.Kind {
	case domain.UpdateEventUpserted:
		return applyEventUpserted(s, u.Event)
	case domain.UpdateEventDeleted:
		return applyEventDeleted(s, u.EventID)
	case domain.UpdateFriendAdded:
		return applyFriendAdded(s, u.UserA, u.UserB)
	case domain.UpdateFriendRemoved:
		return applyFriendRemoved(s, u.UserA, u.UserB)
	case domain.UpdateRequestCreated:
		return applyRequestCreated(s, u.Request)
	case domain.UpdateRequestDeleted:
		return applyRequestDeleted(s, u.UserA, u.UserB)
	case domain.UpdateChatMessage:
		return applyChatMessage(s, u.EventID, u.Message)
	}
	return s
}

func applyEventUpserted(s Snapshot, event *domain.Event) Snapshot {
	if event == nil {
		return s
	}
	involved := false
	for _, id := range event.Participants() {
		if id == s.UserID {
			involved = true
			break
		}
	}
	if !involved {
		// A re-invite removal can look like an upsert the user is no longer in.
		return applyEventDeleted(s, event.ID)
	}

	events := make([]*domain.Event, 0, len(s.Events)+1)
	replaced := false
	for _, e := range s.Events {
		if e.ID == event.ID {
			events = append(events, event)
			replaced = true
		} else {
			events = append(events, e)
		}
	}
	if !replaced {
		events = append(events, event)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].StartTime.Before(events[j].StartTime)
		}
		return events[i].ID < events[j].ID
	})
	s.Events = events
	return s
}

func applyEventDeleted(s Snapshot, eventID string) Snapshot {
	found := false
	events := make([]*domain.Event, 0, len(s.Events))
	for _, e := range s.Events {
		if e.ID == eventID {
			found = true
			continue
		}
		events = append(events, e)
	}
	if !found && s.Unread[eventID] == 0 {
		return s
	}
	s.Events = events
	if _, ok := s.Unread[eventID]; ok {
		unread := make(map[string]int, len(s.Unread))
		for k, v := range s.Unread {
			if k != eventID {
				unread[k] = v
			}
		}
		s.Unread = unread
	}
	return s
}

func applyFriendAdded(s Snapshot, userA, userB string) Snapshot {
	other := otherOf(s.UserID, userA, userB)
	if other == "" || s.IsFriend(other) {
		return s
	}
	friends := make([]string, len(s.Friends), len(s.Friends)+1)
	copy(friends, s.Friends)
	s.Friends = append(friends, other)
	return s
}

func applyFriendRemoved(s Snapshot, userA, userB string) Snapshot {
	other := otherOf(s.UserID, userA, userB)
	if other == "" || !s.IsFriend(other) {
		return s
	}
	friends := make([]string, 0, len(s.Friends))
	for _, id := range s.Friends {
		if id != other {
			friends = append(friends, id)
		}
	}
	s.Friends = friends
	return s
}

func applyRequestCreated(s Snapshot, req *domain.FriendRequest) Snapshot {
	if req == nil {
		return s
	}
	switch s.UserID {
	case req.ReceiverID:
		s.Received = appendRequest(s.Received, req)
	case req.SenderID:
		s.Sent = appendRequest(s.Sent, req)
	}
	return s
}

func applyRequestDeleted(s Snapshot, senderID, receiverID string) Snapshot {
	switch s.UserID {
	case receiverID:
		s.Received = removeRequest(s.Received, senderID, receiverID)
	case senderID:
		s.Sent = removeRequest(s.Sent, senderID, receiverID)
	}
	return s
}

func applyChatMessage(s Snapshot, eventID string, msg *domain.ChatMessage) Snapshot {
	if msg == nil || msg.SenderID == s.UserID {
		return s
	}
	// Only chats the user participates in count.
	if s.EventByID(eventID) == nil {
		return s
	}
	unread := make(map[string]int, len(s.Unread)+1)
	for k, v := range s.Unread {
		unread[k] = v
	}
	unread[eventID]++
	s.Unread = unread
	return s
}

// MarkRead returns a snapshot with the event's unread count zeroed.
func MarkRead(s Snapshot, eventID string) Snapshot {
	if s.Unread[eventID] == 0 {
		return s
	}
	unread := make(map[string]int, len(s.Unread))
	for k, v := range s.Unread {
		if k != eventID {
			unread[k] = v
		}
	}
	s.Unread = unread
	return s
}

func otherOf(self, userA, userB string) string {
	switch self {
	case userA:
		return userB
	case userB:
		return userA
	}
	return ""
}

func appendRequest(reqs []*domain.FriendRequest, req *domain.FriendRequest) []*domain.FriendRequest {
	out := make([]*domain.FriendRequest, 0, len(reqs)+1)
	for _, r := range reqs {
		if r.SenderID == req.SenderID && r.ReceiverID == req.ReceiverID {
			continue
		}
		out = append(out, r)
	}
	return append(out, req)
}

func removeRequest(reqs []*domain.FriendRequest, senderID, receiverID string) []*domain.FriendRequest {
	out := make([]*domain.FriendRequest, 0, len(reqs))
	for _, r := range reqs {
		if r.SenderID == senderID && r.ReceiverID == receiverID {
			continue
		}
		out = append(out, r)
	}
	return out
}
