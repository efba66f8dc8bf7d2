package user

import (
	"context"
	"errors"
	"testing"

	"backend-snapgraph/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileColumns = []string{"id", "username", "name", "bio", "profile_picture", "followers", "following", "posts"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func expectProfile(mock pgxmock.PgxPoolIface, id int64) {
	mock.ExpectQuery(`FROM users u\s+WHERE u.id = \$1`).WithArgs(id).
		WillReturnRows(pgxmock.NewRows(profileColumns).
			AddRow(id, "ana", "Ana", "hi", "", int64(4), int64(2), int64(7)))
}

func TestGetProfile(t *testing.T) {
	mock := newMock(t)
	expectProfile(mock, 1)

	p, err := NewService(mock).GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Profile{
		UserID: 1, Username: "ana", Name: "Ana", Bio: "hi",
		FollowersCount: 4, FollowingCount: 2, PostsCount: 7,
	}, p)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM users u`).WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)

	_, err := NewService(mock).GetProfile(context.Background(), 9)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "User not found", apperr.Message(err))
}

func TestGetProfileInvalidID(t *testing.T) {
	_, err := NewService(newMock(t)).GetProfile(context.Background(), 0)
	assert.Equal(t, "Invalid user ID", apperr.Message(err))
}

func TestUpdateProfilePatchesNonEmptyFields(t *testing.T) {
	mock := newMock(t)
	expectProfile(mock, 1)
	mock.ExpectExec(`UPDATE users`).WithArgs(int64(1), "ana2", "Ana", "new bio", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	p, err := NewService(mock).UpdateProfile(context.Background(), 1, ProfilePatch{Username: " ana2 ", Bio: "new bio"})
	require.NoError(t, err)
	assert.Equal(t, "ana2", p.Username)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, int64(4), p.FollowersCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileUsernameTaken(t *testing.T) {
	mock := newMock(t)
	expectProfile(mock, 1)
	mock.ExpectExec(`UPDATE users`).WithArgs(int64(1), "bo", "Ana", "hi", "").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := NewService(mock).UpdateProfile(context.Background(), 1, ProfilePatch{Username: "bo"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Username already taken", apperr.Message(err))
}

func TestUpdateProfileStoreFailure(t *testing.T) {
	mock := newMock(t)
	expectProfile(mock, 1)
	mock.ExpectExec(`UPDATE users`).WithArgs(int64(1), "ana", "Ana", "hi", "").WillReturnError(errors.New("eof"))

	_, err := NewService(mock).UpdateProfile(context.Background(), 1, ProfilePatch{})
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}
