package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ChatMessage belongs to exactly one event and is immutable once created.
// swagger:model ChatMessage
type ChatMessage struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatMetadata caches the last message of an event's chat plus per-user unread
// counts. It is maintained by the message writer in the same transaction as
// the message insert.
// swagger:model ChatMetadata
type ChatMetadata struct {
	EventID           string         `json:"event_id"`
	LastMessage       string         `json:"last_message"`
	LastMessageSender string         `json:"last_message_sender"`
	LastMessageAt     time.Time      `json:"last_message_at"`
	UnreadCounts      map[string]int `json:"unread_counts"`
}

// ChatRepository stores messages and metadata per event.
type ChatRepository interface {
	// AppendMessage inserts the message and, in the same transaction, updates
	// the event's metadata: last-message fields, and unread+1 for every id in
	// participants except the sender.
	AppendMessage(ctx context.Context, msg *ChatMessage, participants []string) error
	ListMessages(ctx context.Context, eventID string, params PaginationParams) ([]*ChatMessage, int, error)
	GetMetadata(ctx context.Context, eventID string) (*ChatMetadata, error)
	// MarkRead zeroes the unread count for the user. Idempotent.
	MarkRead(ctx context.Context, eventID, userID string) error
	UnreadCount(ctx context.Context, eventID, userID string) (int, error)
	TotalUnread(ctx context.Context, userID string) (int, error)
}

// ChatService defines per-event chat operations.
type ChatService interface {
	PostMessage(ctx context.Context, eventID, senderID, body string) (*ChatMessage, error)
	ListMessages(ctx context.Context, eventID, callerID string, params PaginationParams) ([]*ChatMessage, int, error)
	GetMetadata(ctx context.Context, eventID, callerID string) (*ChatMetadata, error)
	MarkRead(ctx context.Context, eventID, userID string) error
	UnreadCount(ctx context.Context, eventID, userID string) (int, error)
	TotalUnread(ctx context.Context, userID string) (int, error)
}

// SenderField names which wire field a legacy chat payload carried its sender
// identity in.
type SenderField string

const (
	SenderFieldID    SenderField = "senderId"
	SenderFieldUID   SenderField = "senderUID"
	SenderFieldEmail SenderField = "senderEmail"
)

// DecodedChatMessage is the result of decoding a legacy chat payload. Sender
// holds the resolved identity and SenderFrom names the field it came from, so
// callers can tell an id apart from an email fallback.
type DecodedChatMessage struct {
	ID         string
	Sender     string
	SenderFrom SenderField
	SenderName string
	Body       string
	CreatedAt  time.Time
}

type legacyChatPayload struct {
	ID          string    `json:"id"`
	UID         string    `json:"uid"`
	SenderID    string    `json:"senderId"`
	SenderUID   string    `json:"senderUID"`
	SenderEmail string    `json:"senderEmail"`
	SenderName  string    `json:"senderName"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DecodeChatMessage decodes a chat message document written by any historical
// client version. The clients never agreed on one sender field, so the decode
// priority is fixed and documented here: senderId, then senderUID, then
// senderEmail; message id resolves id before uid. Returns ErrInvalidInput when
// no sender field is present. Retained for importing legacy store exports; no
// server call path writes or reads these documents.
func DecodeChatMessage(raw []byte) (*DecodedChatMessage, error) {
	var p legacyChatPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	out := &DecodedChatMessage{
		SenderName: p.SenderName,
		Body:       p.Message,
		CreatedAt:  p.CreatedAt,
	}
	switch {
	case p.SenderID != "":
		out.Sender, out.SenderFrom = p.SenderID, SenderFieldID
	case p.SenderUID != "":
		out.Sender, out.SenderFrom = p.SenderUID, SenderFieldUID
	case p.SenderEmail != "":
		out.Sender, out.SenderFrom = p.SenderEmail, SenderFieldEmail
	default:
		return nil, ErrInvalidInput
	}
	if p.ID != "" {
		out.ID = p.ID
	} else {
		out.ID = p.UID
	}
	return out, nil
}
