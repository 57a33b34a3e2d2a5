package postgres

import (
	"context"
	"database/sql"

	"clique/internal/domain"
)

type friendshipRepository struct {
	DB *sql.DB
}

func NewFriendshipRepository(db *sql.DB) domain.FriendshipRepository {
	return &friendshipRepository{DB: db}
}

// Add writes both directions of the edge and clears any pending request
// between the pair in one transaction. The mobile clients did this as two
// independent document writes; a partial failure there left a one-sided
// friendship, which this closes off.
func (r *friendshipRepository) Add(ctx context.Context, userA, userB string) error {
	if userA == userB {
		return domain.ErrInvalidInput
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, insert, userA, userB); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, insert, userB, userA); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM friend_requests
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)`,
		userA, userB); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *friendshipRepository) Remove(ctx context.Context, userA, userB string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM friendships
		 WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`,
		userA, userB)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

func (r *friendshipRepository) ListFriends(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT friend_id FROM friendships WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AreFriends checks either direction so a half-written edge from a legacy
// client still reads as friends.
func (r *friendshipRepository) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
		)`, userA, userB).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
