package domain

import (
	"context"
	"time"
)

// AttendanceStatus is the state of a (event, user) pair. A user id appears in
// at most one of the invited/accepted/declined sets at a time.
type AttendanceStatus string

const (
	AttendanceInvited  AttendanceStatus = "invited"
	AttendanceAccepted AttendanceStatus = "accepted"
	AttendanceDeclined AttendanceStatus = "declined"
	// AttendanceNone means the user is not involved with the event.
	AttendanceNone AttendanceStatus = "none"
)

// RSVPAction is an invite response action.
type RSVPAction string

const (
	// RSVPAccept moves invited->accepted, or declined->accepted (re-accept).
	RSVPAccept RSVPAction = "accept"
	// RSVPDecline moves invited->declined.
	RSVPDecline RSVPAction = "decline"
	// RSVPLeave removes the user from accepted. A host leaving clears the host
	// field instead of touching the attendance sets.
	RSVPLeave RSVPAction = "leave"
)

// RSVPResult reports the transition a Respond call performed, so callers can
// word notifications (initial accept vs re-accept) without re-reading state.
type RSVPResult struct {
	EventID     string           `json:"event_id"`
	UserID      string           `json:"user_id"`
	From        AttendanceStatus `json:"from"`
	To          AttendanceStatus `json:"to"`
	HostCleared bool             `json:"host_cleared"`
}

// Event represents a planned gathering.
// swagger:model Event
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	LocationName    string    `json:"location_name"`
	LocationAddress string    `json:"location_address"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	NoEndTime       bool      `json:"no_end_time"`
	AvatarURL       string    `json:"avatar_url"`
	HostID          string    `json:"host_id"` // empty after the host leaves
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Attendance sets. Disjoint over user ids; InvitedPhones holds E.164
	// numbers of invitees without an account yet.
	InvitedIDs    []string `json:"invited_ids"`
	AcceptedIDs   []string `json:"accepted_ids"`
	DeclinedIDs   []string `json:"declined_ids"`
	InvitedPhones []string `json:"invited_phones"`
}

// NewEvent returns a new Event with the given fields. ID is set by the repository on create.
func NewEvent(title, locationName, locationAddress, description, hostID string, start, end time.Time, noEndTime bool, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:           title,
		LocationName:    locationName,
		LocationAddress: locationAddress,
		Description:     description,
		HostID:          hostID,
		StartTime:       start,
		EndTime:         end,
		NoEndTime:       noEndTime,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
}

// StatusOf returns which attendance set the user currently belongs to.
func (e *Event) StatusOf(userID string) AttendanceStatus {
	for _, id := range e.InvitedIDs {
		if id == userID {
			return AttendanceInvited
		}
	}
	for _, id := range e.AcceptedIDs {
		if id == userID {
			return AttendanceAccepted
		}
	}
	for _, id := range e.DeclinedIDs {
		if id == userID {
			return AttendanceDeclined
		}
	}
	return AttendanceNone
}

// Participants returns host + invited + accepted + declined user ids, deduped,
// preserving first-seen order. This is the unread-propagation set for chat.
func (e *Event) Participants() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(e.HostID)
	for _, id := range e.AcceptedIDs {
		add(id)
	}
	for _, id := range e.InvitedIDs {
		add(id)
	}
	for _, id := range e.DeclinedIDs {
		add(id)
	}
	return out
}

// EventUpdate carries optional field updates for an event. Nil means unchanged.
type EventUpdate struct {
	Title           *string
	LocationName    *string
	LocationAddress *string
	Description     *string
	StartTime       *time.Time
	EndTime         *time.Time
	NoEndTime       *bool
	AvatarURL       *string
}

// EventRepository defines the interface for event and attendance storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListAll(ctx context.Context) ([]*Event, error)
	ListForUser(ctx context.Context, userID string) ([]*Event, error)
	Update(ctx context.Context, eventID string, upd EventUpdate) (*Event, error)
	Delete(ctx context.Context, id string) error

	InviteUsers(ctx context.Context, eventID string, userIDs []string) error
	InvitePhones(ctx context.Context, eventID string, phones []string) error
	RemoveInvitee(ctx context.Context, eventID, userID string) error
	// ClaimPhoneInvites converts pending phone invitations matching the given
	// E.164 number into user-id invitations for userID, returning the affected
	// event ids.
	ClaimPhoneInvites(ctx context.Context, phone, userID string) ([]string, error)

	// Respond applies the invite response state machine as a single
	// transaction. Returns ErrPreconditionFailed when the user is not in the
	// set the action expects; in that case no sets change.
	Respond(ctx context.Context, eventID, userID string, action RSVPAction) (*RSVPResult, error)
}

// EventService defines event planning operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event, invitedIDs, invitedPhones []string) error
	GetEvent(ctx context.Context, eventID, callerID string) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	ListEventsForUser(ctx context.Context, userID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, callerID string, upd EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, callerID string) error
	InviteUsers(ctx context.Context, eventID, callerID string, userIDs, phones []string) error
	RemoveInvitee(ctx context.Context, eventID, callerID, userID string) error
	RespondToInvite(ctx context.Context, eventID, userID string, action RSVPAction) (*RSVPResult, error)
}
