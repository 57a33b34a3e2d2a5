package realtime

import (
	"clique/internal/domain"
	"clique/internal/session"
)

// ServerMessage is the wire envelope pushed to a connected client. Exactly one
// payload field is set, named by Type.
type ServerMessage struct {
	Type   string         `json:"type"` // "state", "update" or "error"
	State  *StatePayload  `json:"state,omitempty"`
	Update *UpdatePayload `json:"update,omitempty"`
	Error  *ErrorPayload  `json:"error,omitempty"`
}

// StatePayload carries the full snapshot, sent once after connect and after a
// mark_read so the client can reconcile.
type StatePayload struct {
	Events      []*domain.Event         `json:"events"`
	Friends     []string                `json:"friends"`
	Received    []*domain.FriendRequest `json:"received_requests"`
	Sent        []*domain.FriendRequest `json:"sent_requests"`
	Unread      map[string]int          `json:"unread"`
	TotalUnread int                     `json:"total_unread"`
}

// UpdatePayload is one incremental change plus the unread totals after it.
type UpdatePayload struct {
	Kind        domain.UpdateKind     `json:"kind"`
	Event       *domain.Event         `json:"event,omitempty"`
	EventID     string                `json:"event_id,omitempty"`
	UserA       string                `json:"user_a,omitempty"`
	UserB       string                `json:"user_b,omitempty"`
	Request     *domain.FriendRequest `json:"request,omitempty"`
	Message     *domain.ChatMessage   `json:"message,omitempty"`
	TotalUnread int                   `json:"total_unread"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClientMessage is what a connected client may send. Only chat read receipts
// come over the socket; all other writes go through the HTTP API.
type ClientMessage struct {
	Type    string `json:"type"` // "mark_read"
	EventID string `json:"event_id"`
}

func stateMessage(snap session.Snapshot) *ServerMessage {
	events := snap.Events
	if events == nil {
		events = []*domain.Event{}
	}
	friends := snap.Friends
	if friends == nil {
		friends = []string{}
	}
	received := snap.Received
	if received == nil {
		received = []*domain.FriendRequest{}
	}
	sent := snap.Sent
	if sent == nil {
		sent = []*domain.FriendRequest{}
	}
	unread := snap.Unread
	if unread == nil {
		unread = map[string]int{}
	}
	return &ServerMessage{
		Type: "state",
		State: &StatePayload{
			Events:      events,
			Friends:     friends,
			Received:    received,
			Sent:        sent,
			Unread:      unread,
			TotalUnread: snap.TotalUnread(),
		},
	}
}

func updateMessage(u domain.Update, snap session.Snapshot) *ServerMessage {
	return &ServerMessage{
		Type: "update",
		Update: &UpdatePayload{
			Kind:        u.Kind,
			Event:       u.Event,
			EventID:     u.EventID,
			UserA:       u.UserA,
			UserB:       u.UserB,
			Request:     u.Request,
			Message:     u.Message,
			TotalUnread: snap.TotalUnread(),
		},
	}
}

func errorMessage(code, message string) *ServerMessage {
	return &ServerMessage{Type: "error", Error: &ErrorPayload{Code: code, Message: message}}
}
