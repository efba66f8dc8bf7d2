package search

import (
	"context"
	"fmt"
	"strings"

	"backend-snapgraph/internal/apperr"
	"backend-snapgraph/internal/db"

	"golang.org/x/sync/errgroup"
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

// Search matches query case-insensitively as a substring of usernames and
// display names, and of post captions and hashtags. Both lookups run at the
// same time; either failing fails the search. Hits are ordered by id.
func (s *Service) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, apperr.Validation("Invalid or missing search query")
	}
	pattern := "%" + escapeLike(query) + "%"

	var res Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.users(gctx, pattern)
		res.Users = users
		return err
	})
	g.Go(func() error {
		posts, err := s.posts(gctx, pattern)
		res.Posts = posts
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	return res, nil
}

func (s *Service) users(ctx context.Context, pattern string) ([]UserHit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, username, name
		FROM users
		WHERE username ILIKE $1 OR name ILIKE $1
		ORDER BY id
	`, pattern)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	hits := []UserHit{}
	for rows.Next() {
		var h UserHit
		if err := rows.Scan(&h.UserID, &h.Username, &h.Name); err != nil {
			return nil, db.Classify(err)
		}
		hits = append(hits, h)
	}
	return hits, db.Classify(rows.Err())
}

func (s *Service) posts(ctx context.Context, pattern string) ([]PostHit, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, caption, hashtags
		FROM posts
		WHERE caption ILIKE $1 OR hashtags ILIKE $1
		ORDER BY id
	`, pattern)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer rows.Close()

	hits := []PostHit{}
	for rows.Next() {
		var h PostHit
		if err := rows.Scan(&h.PostID, &h.Caption, &h.Hashtags); err != nil {
			return nil, db.Classify(err)
		}
		hits = append(hits, h)
	}
	return hits, db.Classify(rows.Err())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes % and _ in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
