package domain

import (
	"context"
	"time"
)

// FriendRequest is a directed request from Sender to Receiver. It is surfaced
// as the receiver's "received" list and the sender's "sent" list.
// swagger:model FriendRequest
type FriendRequest struct {
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// PairState describes the relationship between an ordered pair of users.
type PairState string

const (
	PairNone            PairState = "none"
	PairRequestSent     PairState = "request_sent"     // A -> B pending
	PairRequestReceived PairState = "request_received" // B -> A pending
	PairFriends         PairState = "friends"
)

// FriendshipRepository stores the symmetric friend graph. An edge is two
// adjacency rows (one per direction); Add and Remove touch both in a single
// transaction, but readers must still tolerate transient asymmetry when the
// graph was written by older clients.
type FriendshipRepository interface {
	// Add inserts both directions of the edge and, in the same transaction,
	// deletes any pending request between the pair.
	Add(ctx context.Context, userA, userB string) error
	Remove(ctx context.Context, userA, userB string) error
	ListFriends(ctx context.Context, userID string) ([]string, error)
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
}

// FriendRequestRepository stores pending friend requests.
type FriendRequestRepository interface {
	Create(ctx context.Context, req *FriendRequest) error
	Delete(ctx context.Context, senderID, receiverID string) error
	// GetBetween returns a pending request between the pair in either
	// direction, or ErrNotFound.
	GetBetween(ctx context.Context, userA, userB string) (*FriendRequest, error)
	ListReceived(ctx context.Context, receiverID string) ([]*FriendRequest, error)
	ListSent(ctx context.Context, senderID string) ([]*FriendRequest, error)
}

// FriendService defines friend graph operations.
type FriendService interface {
	// SendRequest refuses with ErrAlreadyFriends or ErrRequestPending when the
	// pair is already connected or a request exists in either direction.
	SendRequest(ctx context.Context, senderID, receiverID string) error
	// CancelRequest tears down a pending request from either endpoint: the
	// sender cancels, the receiver declines.
	CancelRequest(ctx context.Context, callerID, otherID string) error
	// AcceptRequest creates the friendship edge and removes the pending
	// request from both lists in one combined effect.
	AcceptRequest(ctx context.Context, receiverID, senderID string) error
	RemoveFriend(ctx context.Context, userID, friendID string) error
	ListFriends(ctx context.Context, userID string) ([]*User, error)
	ListReceivedRequests(ctx context.Context, userID string) ([]*User, error)
	ListSentRequests(ctx context.Context, userID string) ([]*User, error)
	// StateBetween reports the pair state from userID's perspective.
	StateBetween(ctx context.Context, userID, otherID string) (PairState, error)
}
