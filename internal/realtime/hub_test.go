package realtime

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"clique/internal/domain"
	"clique/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger())
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	return hub
}

func connect(t *testing.T, hub *Hub, userID string, snap session.Snapshot) *Client {
	t.Helper()
	c := NewClient(userID, snap, nil, hub, nil, testLogger())
	c.Register()
	return c
}

func receive(t *testing.T, c *Client) *ServerMessage {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SeedsStateOnRegister(t *testing.T) {
	hub := startHub(t)

	snap := session.NewSnapshot("user-1")
	snap.Friends = []string{"user-2"}
	c := connect(t, hub, "user-1", snap)

	msg := receive(t, c)
	require.Equal(t, "state", msg.Type)
	require.NotNil(t, msg.State)
	assert.Equal(t, []string{"user-2"}, msg.State.Friends)
	assert.NotNil(t, msg.State.Events)
	assert.NotNil(t, msg.State.Unread)
}

func TestHub_FanOutEventUpdate(t *testing.T) {
	hub := startHub(t)

	invited := connect(t, hub, "user-2", session.NewSnapshot("user-2"))
	bystander := connect(t, hub, "user-9", session.NewSnapshot("user-9"))
	receive(t, invited)
	receive(t, bystander)

	ev := &domain.Event{ID: "ev-1", Title: "Picnic", HostID: "user-1", InvitedIDs: []string{"user-2"}}
	hub.Publish(domain.Update{Kind: domain.UpdateEventUpserted, Event: ev})

	msg := receive(t, invited)
	require.Equal(t, "update", msg.Type)
	require.NotNil(t, msg.Update)
	assert.Equal(t, domain.UpdateEventUpserted, msg.Update.Kind)
	assert.Equal(t, "ev-1", msg.Update.Event.ID)
	assert.Len(t, invited.store.Current().Events, 1)

	expectNothing(t, bystander)
}

func TestHub_ChatMessageUpdatesUnread(t *testing.T) {
	hub := startHub(t)

	snap := session.NewSnapshot("user-2")
	snap = session.Apply(snap, domain.Update{
		Kind:  domain.UpdateEventUpserted,
		Event: &domain.Event{ID: "ev-1", HostID: "user-1", AcceptedIDs: []string{"user-2"}},
	})
	c := connect(t, hub, "user-2", snap)
	receive(t, c)

	hub.Publish(domain.Update{
		Kind:    domain.UpdateChatMessage,
		EventID: "ev-1",
		Message: &domain.ChatMessage{ID: "m-1", EventID: "ev-1", SenderID: "user-1", Body: "hi"},
	})

	msg := receive(t, c)
	require.Equal(t, "update", msg.Type)
	assert.Equal(t, 1, msg.Update.TotalUnread)
	assert.Equal(t, 1, c.store.Current().Unread["ev-1"])
}

func TestHub_FriendUpdatesTargetEndpointsOnly(t *testing.T) {
	hub := startHub(t)

	sender := connect(t, hub, "user-1", session.NewSnapshot("user-1"))
	receiver := connect(t, hub, "user-2", session.NewSnapshot("user-2"))
	bystander := connect(t, hub, "user-9", session.NewSnapshot("user-9"))
	receive(t, sender)
	receive(t, receiver)
	receive(t, bystander)

	req := &domain.FriendRequest{SenderID: "user-1", ReceiverID: "user-2"}
	hub.Publish(domain.Update{Kind: domain.UpdateRequestCreated, Request: req})

	assert.Equal(t, "update", receive(t, sender).Type)
	assert.Equal(t, "update", receive(t, receiver).Type)
	expectNothing(t, bystander)

	require.Len(t, sender.store.Current().Sent, 1)
	require.Len(t, receiver.store.Current().Received, 1)
}

func TestHub_EventDeleteReachesHolder(t *testing.T) {
	hub := startHub(t)

	snap := session.Apply(session.NewSnapshot("user-2"), domain.Update{
		Kind:  domain.UpdateEventUpserted,
		Event: &domain.Event{ID: "ev-1", HostID: "user-1", InvitedIDs: []string{"user-2"}},
	})
	c := connect(t, hub, "user-2", snap)
	receive(t, c)

	hub.Publish(domain.Update{Kind: domain.UpdateEventDeleted, EventID: "ev-1"})
	msg := receive(t, c)
	assert.Equal(t, domain.UpdateEventDeleted, msg.Update.Kind)
	assert.Empty(t, c.store.Current().Events)
}

func TestHub_DeregisterStopsDelivery(t *testing.T) {
	hub := startHub(t)

	c := connect(t, hub, "user-2", session.NewSnapshot("user-2"))
	receive(t, c)

	hub.deregisterChan <- c
	hub.Publish(domain.Update{
		Kind:  domain.UpdateEventUpserted,
		Event: &domain.Event{ID: "ev-1", HostID: "user-1", InvitedIDs: []string{"user-2"}},
	})
	expectNothing(t, c)
}

func TestHub_DeregisterAfterShutdownReturns(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()

	c := connect(t, hub, "user-1", session.NewSnapshot("user-1"))
	receive(t, c)

	hub.Shutdown()

	// A read pump unwinding after shutdown must not park on the hub.
	done := make(chan struct{})
	go func() {
		c.deregister()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("deregister blocked after hub shutdown")
	}
}
