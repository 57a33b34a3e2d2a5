package session

import (
	"testing"
	"time"

	"clique/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_EventUpserted(t *testing.T) {
	snap := NewSnapshot("user-1")

	ev := &domain.Event{ID: "ev-1", Title: "Picnic", HostID: "host-1", InvitedIDs: []string{"user-1"}}
	next := Apply(snap, domain.Update{Kind: domain.UpdateEventUpserted, Event: ev})
	require.Len(t, next.Events, 1)
	assert.Empty(t, snap.Events, "input snapshot must not change")

	// Upsert replaces in place.
	ev2 := &domain.Event{ID: "ev-1", Title: "BBQ", HostID: "host-1", AcceptedIDs: []string{"user-1"}}
	next = Apply(next, domain.Update{Kind: domain.UpdateEventUpserted, Event: ev2})
	require.Len(t, next.Events, 1)
	assert.Equal(t, "BBQ", next.Events[0].Title)

	// An upsert the user no longer appears in drops the event.
	ev3 := &domain.Event{ID: "ev-1", Title: "BBQ", HostID: "host-1"}
	next = Apply(next, domain.Update{Kind: domain.UpdateEventUpserted, Event: ev3})
	assert.Empty(t, next.Events)
}

func TestApply_EventOrdering(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := NewSnapshot("user-1")
	later := &domain.Event{ID: "ev-b", HostID: "user-1", StartTime: base.Add(time.Hour)}
	earlier := &domain.Event{ID: "ev-a", HostID: "user-1", StartTime: base}

	snap = Apply(snap, domain.Update{Kind: domain.UpdateEventUpserted, Event: later})
	snap = Apply(snap, domain.Update{Kind: domain.UpdateEventUpserted, Event: earlier})
	require.Len(t, snap.Events, 2)
	assert.Equal(t, "ev-a", snap.Events[0].ID)
	assert.Equal(t, "ev-b", snap.Events[1].ID)
}

func TestApply_EventDeleted(t *testing.T) {
	snap := NewSnapshot("user-1")
	ev := &domain.Event{ID: "ev-1", HostID: "user-1"}
	snap = Apply(snap, domain.Update{Kind: domain.UpdateEventUpserted, Event: ev})
	snap.Unread = map[string]int{"ev-1": 3}

	next := Apply(snap, domain.Update{Kind: domain.UpdateEventDeleted, EventID: "ev-1"})
	assert.Empty(t, next.Events)
	assert.Zero(t, next.Unread["ev-1"])
	// Unrelated delete is a no-op returning the same value.
	same := Apply(next, domain.Update{Kind: domain.UpdateEventDeleted, EventID: "ev-other"})
	assert.Equal(t, next, same)
}

func TestApply_Friends(t *testing.T) {
	snap := NewSnapshot("user-1")

	snap = Apply(snap, domain.Update{Kind: domain.UpdateFriendAdded, UserA: "user-1", UserB: "user-2"})
	assert.True(t, snap.IsFriend("user-2"))

	// Duplicate add is idempotent.
	snap = Apply(snap, domain.Update{Kind: domain.UpdateFriendAdded, UserA: "user-2", UserB: "user-1"})
	assert.Len(t, snap.Friends, 1)

	// Edges not involving this user are ignored.
	snap = Apply(snap, domain.Update{Kind: domain.UpdateFriendAdded, UserA: "user-3", UserB: "user-4"})
	assert.Len(t, snap.Friends, 1)

	snap = Apply(snap, domain.Update{Kind: domain.UpdateFriendRemoved, UserA: "user-2", UserB: "user-1"})
	assert.False(t, snap.IsFriend("user-2"))
}

func TestApply_Requests(t *testing.T) {
	req := &domain.FriendRequest{SenderID: "user-2", ReceiverID: "user-1"}

	receiver := Apply(NewSnapshot("user-1"), domain.Update{Kind: domain.UpdateRequestCreated, Request: req})
	require.Len(t, receiver.Received, 1)
	assert.Empty(t, receiver.Sent)

	sender := Apply(NewSnapshot("user-2"), domain.Update{Kind: domain.UpdateRequestCreated, Request: req})
	require.Len(t, sender.Sent, 1)
	assert.Empty(t, sender.Received)

	receiver = Apply(receiver, domain.Update{Kind: domain.UpdateRequestDeleted, UserA: "user-2", UserB: "user-1"})
	assert.Empty(t, receiver.Received)
	sender = Apply(sender, domain.Update{Kind: domain.UpdateRequestDeleted, UserA: "user-2", UserB: "user-1"})
	assert.Empty(t, sender.Sent)
}

func TestApply_ChatMessage(t *testing.T) {
	snap := NewSnapshot("user-1")
	ev := &domain.Event{ID: "ev-1", HostID: "user-1"}
	snap = Apply(snap, domain.Update{Kind: domain.UpdateEventUpserted, Event: ev})

	msg := &domain.ChatMessage{ID: "m-1", EventID: "ev-1", SenderID: "user-2", Body: "hi"}
	next := Apply(snap, domain.Update{Kind: domain.UpdateChatMessage, EventID: "ev-1", Message: msg})
	assert.Equal(t, 1, next.Unread["ev-1"])
	assert.Equal(t, 1, next.TotalUnread())
	assert.Zero(t, snap.Unread["ev-1"], "input snapshot must not change")

	// Own messages never count as unread.
	own := &domain.ChatMessage{ID: "m-2", EventID: "ev-1", SenderID: "user-1", Body: "yo"}
	next = Apply(next, domain.Update{Kind: domain.UpdateChatMessage, EventID: "ev-1", Message: own})
	assert.Equal(t, 1, next.Unread["ev-1"])

	// Chats of events the user is not in are ignored.
	other := &domain.ChatMessage{ID: "m-3", EventID: "ev-x", SenderID: "user-2", Body: "?"}
	next = Apply(next, domain.Update{Kind: domain.UpdateChatMessage, EventID: "ev-x", Message: other})
	assert.Zero(t, next.Unread["ev-x"])
}

func TestMarkRead(t *testing.T) {
	snap := NewSnapshot("user-1")
	snap.Unread = map[string]int{"ev-1": 2, "ev-2": 1}

	next := MarkRead(snap, "ev-1")
	assert.Zero(t, next.Unread["ev-1"])
	assert.Equal(t, 1, next.Unread["ev-2"])
	assert.Equal(t, 2, snap.Unread["ev-1"], "input snapshot must not change")

	// Already read is a no-op.
	same := MarkRead(next, "ev-1")
	assert.Equal(t, next, same)
}

func TestStore(t *testing.T) {
	store := NewStore(NewSnapshot("user-1"))

	ev := &domain.Event{ID: "ev-1", HostID: "user-1"}
	got := store.Apply(domain.Update{Kind: domain.UpdateEventUpserted, Event: ev})
	require.Len(t, got.Events, 1)
	assert.Len(t, store.Current().Events, 1)

	msg := &domain.ChatMessage{ID: "m-1", EventID: "ev-1", SenderID: "user-2"}
	store.Apply(domain.Update{Kind: domain.UpdateChatMessage, EventID: "ev-1", Message: msg})
	assert.Equal(t, 1, store.Current().Unread["ev-1"])

	store.MarkRead("ev-1")
	assert.Zero(t, store.Current().Unread["ev-1"])
}
