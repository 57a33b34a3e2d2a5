package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"clique/internal/domain"
)

func TestEventRepository_Respond(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		action   domain.RSVPAction
		mock     func(mock sqlmock.Sqlmock)
		want     *domain.RSVPResult
		wantErr  error
	}{
		{
			name:   "accept from invited",
			action: domain.RSVPAccept,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT host_id FROM events WHERE id = \$1 FOR UPDATE`).
					WithArgs("ev1").
					WillReturnRows(sqlmock.NewRows([]string{"host_id"}).AddRow("host"))
				mock.ExpectQuery(`SELECT status FROM event_attendance`).
					WithArgs("ev1", "u1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("invited"))
				mock.ExpectExec(`UPDATE event_attendance SET status = \$3`).
					WithArgs("ev1", "u1", "accepted").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: &domain.RSVPResult{
				EventID: "ev1", UserID: "u1",
				From: domain.AttendanceInvited, To: domain.AttendanceAccepted,
			},
		},
		{
			name:   "re-accept from declined",
			action: domain.RSVPAccept,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT host_id FROM events`).
					WithArgs("ev1").
					WillReturnRows(sqlmock.NewRows([]string{"host_id"}).AddRow("host"))
				mock.ExpectQuery(`SELECT status FROM event_attendance`).
					WithArgs("ev1", "u1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("declined"))
				mock.ExpectExec(`UPDATE event_attendance SET status = \$3`).
					WithArgs("ev1", "u1", "accepted").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: &domain.RSVPResult{
				EventID: "ev1", UserID: "u1",
				From: domain.AttendanceDeclined, To: domain.AttendanceAccepted,
			},
		},
		{
			name:   "decline from invited",
			action: domain.RSVPDecline,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT host_id FROM events`).
					WithArgs("ev1").
					WillReturnRows(sqlmock.NewRows([]string{"host_id"}).AddRow("host"))
				mock.ExpectQuery(`SELECT status FROM event_attendance`).
					WithArgs("ev1", "u1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("invited"))
				mock.ExpectExec(`UPDATE event_attendance SET status = \$3`).
					WithArgs("ev1", "u1", "declined").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: &domain.RSVPResult{
				EventID: "ev1", UserID: "u1",
				From: domain.AttendanceInvited, To: domain.AttendanceDeclined,
			},
		},
		{
			name:   "leave removes accepted row",
			action: domain.RSVPLeave,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT host_id FROM events`).
					WithArgs("ev1").
					WillReturnRows(sqlmock.NewRows([]string{"host_id"}).AddRow("host"))
				mock.ExpectQuery(`SELECT status FROM event_attendance`).
					WithArgs("ev1", "u1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("accepted"))
				mock.ExpectExec(`DELETE FROM event_attendance`).
					WithArgs("ev1", "u1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: &domain.RSVPResult{
				EventID: "ev1", UserID: "u1",
				From: domain.AttendanceAccepted, To: domain.AttendanceNone,
			},
		},
		{
			name:   "decline when not invited fails precondition",
			action: domain.RSVPDecline,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT host_id FROM events`).
					WithArgs("ev1").
					WillReturnRows(sqlmock.NewRows([]string{"host_id"}).AddRow("host"))
				mock.ExpectQuery(`SELECT status FROM event_attendance`).
					WithArgs("ev1", "u1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("accepted"))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrPreconditionFailed,
		},
		{
			name:   "accept with no attendance row fails precondition",
			action: domain.RSVPAccept,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT host_id FROM events`).
					WithArgs("ev1").
					WillReturnRows(sqlmock.NewRows([]string{"host_id"}).AddRow("host"))
				mock.ExpectQuery(`SELECT status FROM event_attendance`).
					WithArgs("ev1", "u1").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: domain.ErrPreconditionFailed,
		},
		{
			name:   "missing event",
			action: domain.RSVPAccept,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT host_id FROM events`).
					WithArgs("ev1").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			got, err := repo.Respond(ctx, "ev1", "u1", tt.action)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Respond_HostLeaveClearsHost(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT host_id FROM events`).
		WithArgs("ev1").
		WillReturnRows(sqlmock.NewRows([]string{"host_id"}).AddRow("host"))
	mock.ExpectExec(`UPDATE events SET host_id = NULL`).
		WithArgs("ev1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewEventRepository(db)
	got, err := repo.Respond(context.Background(), "ev1", "host", domain.RSVPLeave)
	require.NoError(t, err)
	require.True(t, got.HostCleared)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_ClaimPhoneInvites(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM event_phone_invites WHERE phone = \$1 RETURNING event_id`).
		WithArgs("+12175551234").
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow("ev1").AddRow("ev2"))
	mock.ExpectExec(`INSERT INTO event_attendance`).
		WithArgs("ev1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO event_attendance`).
		WithArgs("ev2", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewEventRepository(db)
	ids, err := repo.ClaimPhoneInvites(context.Background(), "+12175551234", "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"ev1", "ev2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
