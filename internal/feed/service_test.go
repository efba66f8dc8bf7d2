package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-snapgraph/internal/apperr"
	"backend-snapgraph/internal/post"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var feedColumns = []string{"id", "image_url", "caption", "hashtags", "created_at", "user_id", "username"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func postIDs(posts []post.Summary) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.PostID
	}
	return out
}

func TestBuildFeedNewestFirst(t *testing.T) {
	mock := newMock(t)
	at := func(h, m int) time.Time { return time.Date(2024, 5, 1, h, m, 0, 0, time.UTC) }

	mock.ExpectQuery(`FROM follows f\s+JOIN posts p`).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(feedColumns).
			AddRow(int64(1), "a", "", "", at(10, 0), int64(2), "bo").
			AddRow(int64(2), "b", "", "", at(10, 5), int64(3), "cy"))

	posts, err := NewService(mock).BuildFeed(context.Background(), 1, Page{})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, postIDs(posts))
	assert.Equal(t, post.Author{UserID: 3, Username: "cy"}, posts[0].User)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildFeedTiesBrokenByIDDescending(t *testing.T) {
	mock := newMock(t)
	same := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM follows f`).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(feedColumns).
			AddRow(int64(4), "", "", "", same, int64(2), "bo").
			AddRow(int64(9), "", "", "", same, int64(2), "bo").
			AddRow(int64(7), "", "", "", same.Add(-time.Second), int64(3), "cy").
			AddRow(int64(6), "", "", "", same, int64(3), "cy"))

	posts, err := NewService(mock).BuildFeed(context.Background(), 1, Page{})
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 6, 4, 7}, postIDs(posts))
}

func TestBuildFeedFollowingNobodyIsEmpty(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM follows f`).WithArgs(int64(5)).WillReturnRows(pgxmock.NewRows(feedColumns))

	posts, err := NewService(mock).BuildFeed(context.Background(), 5, Page{})
	require.NoError(t, err)
	require.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestBuildFeedPaged(t *testing.T) {
	mock := newMock(t)
	before := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`\(p.created_at, p.id\) < \(\$2, \$3\)\s+ORDER BY p.created_at DESC, p.id DESC\s+LIMIT \$4`).
		WithArgs(int64(1), before, int64(30), 2).
		WillReturnRows(pgxmock.NewRows(feedColumns).
			AddRow(int64(29), "", "", "", before, int64(2), "bo").
			AddRow(int64(20), "", "", "", before.Add(-time.Minute), int64(2), "bo"))

	page := Page{Limit: 2, Before: &Cursor{CreatedAt: before, PostID: 30}}
	posts, err := NewService(mock).BuildFeed(context.Background(), 1, page)
	require.NoError(t, err)
	assert.Equal(t, []int64{29, 20}, postIDs(posts))

	next := NextCursor(posts, page)
	require.NotNil(t, next)
	assert.Equal(t, int64(20), next.PostID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildFeedLimitOnly(t *testing.T) {
	query, args := feedQuery(1, Page{Limit: 10})
	assert.Contains(t, query, "LIMIT $2")
	assert.NotContains(t, query, "p.id) <")
	assert.Equal(t, []any{int64(1), 10}, args)

	query, args = feedQuery(1, Page{})
	assert.NotContains(t, query, "LIMIT")
	assert.Equal(t, []any{int64(1)}, args)
}

func TestBuildFeedValidation(t *testing.T) {
	svc := NewService(newMock(t))

	_, err := svc.BuildFeed(context.Background(), 0, Page{})
	assert.Equal(t, "Invalid user ID", apperr.Message(err))

	_, err = svc.BuildFeed(context.Background(), 1, Page{Limit: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestBuildFeedStoreFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM follows f`).WithArgs(int64(1)).WillReturnError(errors.New("timeout"))

	_, err := NewService(mock).BuildFeed(context.Background(), 1, Page{})
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestNextCursorShortPage(t *testing.T) {
	assert.Nil(t, NextCursor([]post.Summary{{PostID: 1}}, Page{Limit: 5}))
	assert.Nil(t, NextCursor([]post.Summary{{PostID: 1}}, Page{}))
}

func TestCursorString(t *testing.T) {
	c := Cursor{CreatedAt: time.Unix(0, 1714557600123456789).UTC(), PostID: 42}
	assert.Equal(t, "1714557600123456789_42", c.String())

	parsed, err := ParseCursor(c.String())
	require.NoError(t, err)
	assert.True(t, parsed.CreatedAt.Equal(c.CreatedAt))
	assert.Equal(t, int64(42), parsed.PostID)

	for _, raw := range []string{"", "abc", "1_x", "x_1", "1_0"} {
		_, err := ParseCursor(raw)
		assert.ErrorIs(t, err, apperr.ErrValidation, raw)
	}
}
