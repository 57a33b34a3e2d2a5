package domain

// UpdateKind tags a change notification fanned out to realtime subscribers.
type UpdateKind string

const (
	UpdateEventUpserted  UpdateKind = "event_upserted"
	UpdateEventDeleted   UpdateKind = "event_deleted"
	UpdateFriendAdded    UpdateKind = "friend_added"
	UpdateFriendRemoved  UpdateKind = "friend_removed"
	UpdateRequestCreated UpdateKind = "request_created"
	UpdateRequestDeleted UpdateKind = "request_deleted"
	UpdateChatMessage    UpdateKind = "chat_message"
)

// Update is a change notification produced by a service after a successful
// store mutation. Exactly the fields relevant to Kind are set.
type Update struct {
	Kind UpdateKind

	Event   *Event // UpdateEventUpserted
	EventID string // UpdateEventDeleted, UpdateChatMessage

	// Friend edge endpoints (UpdateFriendAdded/Removed) or request
	// sender/receiver (UpdateRequestDeleted).
	UserA, UserB string

	Request *FriendRequest // UpdateRequestCreated
	Message *ChatMessage   // UpdateChatMessage
}

// UpdatePublisher fans an update out to interested subscribers. Publish must
// not block on slow consumers.
type UpdatePublisher interface {
	Publish(u Update)
}

// NopPublisher discards updates. Used when no realtime hub is attached.
type NopPublisher struct{}

func (NopPublisher) Publish(Update) {}
