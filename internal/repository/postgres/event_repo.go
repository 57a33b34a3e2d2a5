package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"clique/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, title, location_name, location_address, description, start_time, end_time, no_end_time, avatar_url, host_id, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var hostNull sql.NullString
	err := row.Scan(&e.ID, &e.Title, &e.LocationName, &e.LocationAddress, &e.Description,
		&e.StartTime, &e.EndTime, &e.NoEndTime, &e.AvatarURL, &hostNull, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.HostID = hostNull.String
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (title, location_name, location_address, description, start_time, end_time, no_end_time, avatar_url, host_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		e.Title, e.LocationName, e.LocationAddress, e.Description,
		e.StartTime, e.EndTime, e.NoEndTime, e.AvatarURL, e.HostID, e.CreatedAt, e.UpdatedAt).
		Scan(&e.ID)
	if err != nil {
		return err
	}

	for _, userID := range e.InvitedIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_attendance (event_id, user_id, status) VALUES ($1, $2, 'invited') ON CONFLICT DO NOTHING`,
			e.ID, userID); err != nil {
			return err
		}
	}
	for _, phone := range e.InvitedPhones {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_phone_invites (event_id, phone) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			e.ID, phone); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// loadAttendance fills the attendance sets and phone invites of the given
// events with two queries.
func (r *eventRepository) loadAttendance(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Event, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT event_id, user_id, status FROM event_attendance WHERE event_id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID, userID, status string
		if err := rows.Scan(&eventID, &userID, &status); err != nil {
			return err
		}
		e := byID[eventID]
		if e == nil {
			continue
		}
		switch domain.AttendanceStatus(status) {
		case domain.AttendanceInvited:
			e.InvitedIDs = append(e.InvitedIDs, userID)
		case domain.AttendanceAccepted:
			e.AcceptedIDs = append(e.AcceptedIDs, userID)
		case domain.AttendanceDeclined:
			e.DeclinedIDs = append(e.DeclinedIDs, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	phoneRows, err := r.DB.QueryContext(ctx,
		`SELECT event_id, phone FROM event_phone_invites WHERE event_id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return err
	}
	defer phoneRows.Close()
	for phoneRows.Next() {
		var eventID, phone string
		if err := phoneRows.Scan(&eventID, &phone); err != nil {
			return err
		}
		if e := byID[eventID]; e != nil {
			e.InvitedPhones = append(e.InvitedPhones, phone)
		}
	}
	return phoneRows.Err()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadAttendance(ctx, []*domain.Event{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListAll(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_time`
	return r.list(ctx, query)
}

func (r *eventRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE host_id = $1
		   OR id IN (SELECT event_id FROM event_attendance WHERE user_id = $1)
		ORDER BY start_time
	`
	return r.list(ctx, query, userID)
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadAttendance(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	add := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.LocationName != nil {
		add("location_name", *upd.LocationName)
	}
	if upd.LocationAddress != nil {
		add("location_address", *upd.LocationAddress)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.StartTime != nil {
		add("start_time", *upd.StartTime)
	}
	if upd.EndTime != nil {
		add("end_time", *upd.EndTime)
	}
	if upd.NoEndTime != nil {
		add("no_end_time", *upd.NoEndTime)
	}
	if upd.AvatarURL != nil {
		add("avatar_url", *upd.AvatarURL)
	}
	if n == 1 {
		return r.GetByID(ctx, eventID)
	}
	args = append(args, eventID)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING `+eventColumns+`
	`, strings.Join(setClauses, ", "), n)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if err := r.loadAttendance(ctx, []*domain.Event{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) InviteUsers(ctx context.Context, eventID string, userIDs []string) error {
	// ON CONFLICT keeps any existing attendance row: re-inviting a user who
	// already responded does not move them between sets.
	for _, userID := range userIDs {
		if _, err := r.DB.ExecContext(ctx,
			`INSERT INTO event_attendance (event_id, user_id, status) VALUES ($1, $2, 'invited') ON CONFLICT DO NOTHING`,
			eventID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *eventRepository) InvitePhones(ctx context.Context, eventID string, phones []string) error {
	for _, phone := range phones {
		if _, err := r.DB.ExecContext(ctx,
			`INSERT INTO event_phone_invites (event_id, phone) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			eventID, phone); err != nil {
			return err
		}
	}
	return nil
}

func (r *eventRepository) RemoveInvitee(ctx context.Context, eventID, userID string) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM event_attendance WHERE event_id = $1 AND user_id = $2`,
		eventID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ClaimPhoneInvites(ctx context.Context, phone, userID string) ([]string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`DELETE FROM event_phone_invites WHERE phone = $1 RETURNING event_id`, phone)
	if err != nil {
		return nil, err
	}
	var eventIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		eventIDs = append(eventIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, eventID := range eventIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_attendance (event_id, user_id, status) VALUES ($1, $2, 'invited') ON CONFLICT DO NOTHING`,
			eventID, userID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return eventIDs, nil
}

// Respond applies the invite response state machine under a row lock so two
// concurrent responses to the same invite serialize instead of losing updates.
func (r *eventRepository) Respond(ctx context.Context, eventID, userID string, action domain.RSVPAction) (*domain.RSVPResult, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var hostNull sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT host_id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&hostNull)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	res := &domain.RSVPResult{EventID: eventID, UserID: userID}

	if action == domain.RSVPLeave && hostNull.Valid && hostNull.String == userID {
		// The host leaving clears the host field; attendance sets are untouched.
		if _, err := tx.ExecContext(ctx, `UPDATE events SET host_id = NULL, updated_at = NOW() WHERE id = $1`, eventID); err != nil {
			return nil, err
		}
		res.From = domain.AttendanceNone
		res.To = domain.AttendanceNone
		res.HostCleared = true
		return res, tx.Commit()
	}

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM event_attendance WHERE event_id = $1 AND user_id = $2 FOR UPDATE`,
		eventID, userID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPreconditionFailed
		}
		return nil, err
	}
	res.From = domain.AttendanceStatus(status)

	switch action {
	case domain.RSVPAccept:
		if res.From != domain.AttendanceInvited && res.From != domain.AttendanceDeclined {
			return nil, domain.ErrPreconditionFailed
		}
		res.To = domain.AttendanceAccepted
	case domain.RSVPDecline:
		if res.From != domain.AttendanceInvited {
			return nil, domain.ErrPreconditionFailed
		}
		res.To = domain.AttendanceDeclined
	case domain.RSVPLeave:
		if res.From != domain.AttendanceAccepted {
			return nil, domain.ErrPreconditionFailed
		}
		res.To = domain.AttendanceNone
	default:
		return nil, domain.ErrInvalidInput
	}

	if res.To == domain.AttendanceNone {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM event_attendance WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE event_attendance SET status = $3 WHERE event_id = $1 AND user_id = $2`,
			eventID, userID, string(res.To))
	}
	if err != nil {
		return nil, err
	}

	return res, tx.Commit()
}
