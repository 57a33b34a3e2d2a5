package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"clique/internal/domain"
)

func TestFriendshipRepository_Add(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO friendships`).
		WithArgs("a", "b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO friendships`).
		WithArgs("b", "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM friend_requests`).
		WithArgs("a", "b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewFriendshipRepository(db)
	require.NoError(t, repo.Add(context.Background(), "a", "b"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendshipRepository_Add_SelfEdge(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFriendshipRepository(db)
	require.ErrorIs(t, repo.Add(context.Background(), "a", "a"), domain.ErrInvalidInput)
}

func TestFriendshipRepository_Remove(t *testing.T) {
	tests := []struct {
		name    string
		rows    int64
		wantErr error
	}{
		{name: "removes both directions", rows: 2},
		{name: "not friends", rows: 0, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectExec(`DELETE FROM friendships`).
				WithArgs("a", "b").
				WillReturnResult(sqlmock.NewResult(0, tt.rows))
			if tt.wantErr == nil {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			repo := NewFriendshipRepository(db)
			err = repo.Remove(context.Background(), "a", "b")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFriendshipRepository_AreFriends(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a", "b").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewFriendshipRepository(db)
	ok, err := repo.AreFriends(context.Background(), "a", "b")
	require.NoError(t, err)
	require.True(t, ok)
}
