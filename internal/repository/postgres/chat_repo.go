package postgres

import (
	"context"
	"database/sql"
	"errors"

	"clique/internal/domain"
)

type chatRepository struct {
	DB *sql.DB
}

func NewChatRepository(db *sql.DB) domain.ChatRepository {
	return &chatRepository{DB: db}
}

// AppendMessage inserts the message and maintains the event's metadata in the
// same transaction: last-message fields plus unread+1 for every participant
// except the sender. The mobile clients did the insert and the metadata write
// separately and tolerated staleness between them; keeping both in one
// transaction removes that window.
func (r *chatRepository) AppendMessage(ctx context.Context, msg *domain.ChatMessage, participants []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (id, event_id, sender_id, sender_name, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.EventID, msg.SenderID, msg.SenderName, msg.Body, msg.CreatedAt); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_metadata (event_id, last_message, last_message_sender, last_message_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (event_id) DO UPDATE
		 SET last_message = $2, last_message_sender = $3, last_message_at = $4`,
		msg.EventID, msg.Body, msg.SenderName, msg.CreatedAt); err != nil {
		return err
	}

	for _, userID := range participants {
		if userID == msg.SenderID {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_unread (event_id, user_id, count)
			 VALUES ($1, $2, 1)
			 ON CONFLICT (event_id, user_id) DO UPDATE SET count = chat_unread.count + 1`,
			msg.EventID, userID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *chatRepository) ListMessages(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.ChatMessage, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, event_id, sender_id, sender_name, body, created_at
		FROM chat_messages
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	msgs := make([]*domain.ChatMessage, 0)
	for rows.Next() {
		m := &domain.ChatMessage{}
		if err := rows.Scan(&m.ID, &m.EventID, &m.SenderID, &m.SenderName, &m.Body, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *chatRepository) GetMetadata(ctx context.Context, eventID string) (*domain.ChatMetadata, error) {
	meta := &domain.ChatMetadata{EventID: eventID, UnreadCounts: make(map[string]int)}
	var lastAt sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		`SELECT last_message, last_message_sender, last_message_at FROM chat_metadata WHERE event_id = $1`,
		eventID).Scan(&meta.LastMessage, &meta.LastMessageSender, &lastAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No messages yet; empty metadata, not an error.
			return meta, nil
		}
		return nil, err
	}
	if lastAt.Valid {
		meta.LastMessageAt = lastAt.Time
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT user_id, count FROM chat_unread WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, err
		}
		meta.UnreadCounts[userID] = count
	}
	return meta, rows.Err()
}

func (r *chatRepository) MarkRead(ctx context.Context, eventID, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO chat_unread (event_id, user_id, count)
		 VALUES ($1, $2, 0)
		 ON CONFLICT (event_id, user_id) DO UPDATE SET count = 0`,
		eventID, userID)
	return err
}

func (r *chatRepository) UnreadCount(ctx context.Context, eventID, userID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(
			(SELECT count FROM chat_unread WHERE event_id = $1 AND user_id = $2), 0)`,
		eventID, userID).Scan(&count)
	return count, err
}

func (r *chatRepository) TotalUnread(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(count), 0) FROM chat_unread WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}
