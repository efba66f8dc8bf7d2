// Package feed builds a user's home feed: posts by everyone they follow,
// newest first.
//
// Without a limit the whole feed is read in one query, which grows with the
// number of followed authors and their posts; clients that care should page
// with Limit and Before.
package feed

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"backend-snapgraph/internal/apperr"
	"backend-snapgraph/internal/db"
	"backend-snapgraph/internal/post"
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

// BuildFeed returns posts authored by the users viewerID follows, ordered by
// creation time descending and post id descending for equal timestamps. A
// viewer who follows nobody, or does not exist, gets an empty feed.
func (s *Service) BuildFeed(ctx context.Context, viewerID int64, page Page) ([]post.Summary, error) {
	if viewerID <= 0 {
		return nil, apperr.Validation("Invalid user ID")
	}
	if page.Limit < 0 {
		return nil, apperr.Validation("Invalid limit")
	}

	query, args := feedQuery(viewerID, page)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("feed query: %w", db.Classify(err))
	}
	defer rows.Close()

	posts := []post.Summary{}
	for rows.Next() {
		var p post.Summary
		if err := rows.Scan(&p.PostID, &p.ImageURL, &p.Caption, &p.Hashtags, &p.CreatedAt, &p.User.UserID, &p.User.Username); err != nil {
			return nil, fmt.Errorf("feed scan: %w", db.Classify(err))
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("feed rows: %w", db.Classify(err))
	}
	return sortFeed(posts), nil
}

// NextCursor is the cursor for the page after posts, or nil when a limited
// page came back short and nothing follows.
func NextCursor(posts []post.Summary, page Page) *Cursor {
	if page.Limit == 0 || len(posts) < page.Limit {
		return nil
	}
	last := posts[len(posts)-1]
	return &Cursor{CreatedAt: last.CreatedAt, PostID: last.PostID}
}

func feedQuery(viewerID int64, page Page) (string, []any) {
	var b strings.Builder
	args := []any{viewerID}

	b.WriteString(`
		SELECT p.id, p.image_url, p.caption, p.hashtags, p.created_at, u.id, u.username
		FROM follows f
		JOIN posts p ON p.user_id = f.following_id
		JOIN users u ON u.id = p.user_id
		WHERE f.follower_id = $1`)
	if page.Before != nil {
		args = append(args, page.Before.CreatedAt, page.Before.PostID)
		b.WriteString(`
		  AND (p.created_at, p.id) < ($2, $3)`)
	}
	b.WriteString(`
		ORDER BY p.created_at DESC, p.id DESC`)
	if page.Limit > 0 {
		args = append(args, page.Limit)
		b.WriteString(`
		LIMIT $` + strconv.Itoa(len(args)))
	}
	return b.String(), args
}

func sortFeed(posts []post.Summary) []post.Summary {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].PostID > posts[j].PostID
	})
	return posts
}
