package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"clique/internal/domain"
)

type friendRequestRepository struct {
	DB *sql.DB
}

func NewFriendRequestRepository(db *sql.DB) domain.FriendRequestRepository {
	return &friendRequestRepository{DB: db}
}

func (r *friendRequestRepository) Create(ctx context.Context, req *domain.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (sender_id, receiver_id, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.DB.ExecContext(ctx, query, req.SenderID, req.ReceiverID, req.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrRequestPending
		}
		return err
	}
	return nil
}

func (r *friendRequestRepository) Delete(ctx context.Context, senderID, receiverID string) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM friend_requests WHERE sender_id = $1 AND receiver_id = $2`,
		senderID, receiverID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *friendRequestRepository) GetBetween(ctx context.Context, userA, userB string) (*domain.FriendRequest, error) {
	query := `
		SELECT sender_id, receiver_id, created_at
		FROM friend_requests
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
	`
	req := &domain.FriendRequest{}
	err := r.DB.QueryRowContext(ctx, query, userA, userB).
		Scan(&req.SenderID, &req.ReceiverID, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *friendRequestRepository) ListReceived(ctx context.Context, receiverID string) ([]*domain.FriendRequest, error) {
	query := `
		SELECT sender_id, receiver_id, created_at
		FROM friend_requests
		WHERE receiver_id = $1
		ORDER BY created_at DESC
	`
	return r.listRequests(ctx, query, receiverID)
}

func (r *friendRequestRepository) ListSent(ctx context.Context, senderID string) ([]*domain.FriendRequest, error) {
	query := `
		SELECT sender_id, receiver_id, created_at
		FROM friend_requests
		WHERE sender_id = $1
		ORDER BY created_at DESC
	`
	return r.listRequests(ctx, query, senderID)
}

func (r *friendRequestRepository) listRequests(ctx context.Context, query, id string) ([]*domain.FriendRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reqs := make([]*domain.FriendRequest, 0)
	for rows.Next() {
		req := &domain.FriendRequest{}
		if err := rows.Scan(&req.SenderID, &req.ReceiverID, &req.CreatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
