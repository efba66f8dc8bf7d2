package post

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend-snapgraph/internal/apperr"
	"backend-snapgraph/internal/db"
	"backend-snapgraph/internal/events"

	"github.com/jackc/pgx/v5"
)

type Service struct {
	db  db.Querier
	pub events.Publisher
}

func NewService(q db.Querier, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{db: q, pub: pub}
}

// CreatePost stores a post for an existing user. The author is looked up
// before the insert so a missing user never reaches the foreign key.
func (s *Service) CreatePost(ctx context.Context, in CreateInput) (Summary, error) {
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.UserID <= 0 || in.ImageURL == "" {
		return Summary{}, apperr.Validation("Missing required fields")
	}

	out := Summary{
		ImageURL: in.ImageURL,
		Caption:  in.Caption,
		Hashtags: in.Hashtags,
		User:     Author{UserID: in.UserID},
	}

	err := s.db.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, in.UserID).Scan(&out.User.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return Summary{}, fmt.Errorf("lookup author: %w", db.Classify(err))
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (user_id, image_url, caption, hashtags)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at
	`, in.UserID, in.ImageURL, in.Caption, in.Hashtags)
	if err := row.Scan(&out.PostID, &out.CreatedAt); err != nil {
		return Summary{}, fmt.Errorf("insert post: %w", db.Classify(err))
	}

	events.Emit(ctx, s.pub, events.New(events.PostCreated, events.UserChannel(in.UserID), out))
	return out, nil
}

// GetPost returns one post with its live like count.
func (s *Service) GetPost(ctx context.Context, id int64) (Detail, error) {
	if id <= 0 {
		return Detail{}, apperr.Validation("Invalid post ID")
	}

	var d Detail
	row := s.db.QueryRow(ctx, `
		SELECT p.id, p.image_url, p.caption, p.hashtags, p.created_at, u.id, u.username,
		       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id)
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`, id)
	err := row.Scan(&d.PostID, &d.ImageURL, &d.Caption, &d.Hashtags, &d.CreatedAt, &d.User.UserID, &d.User.Username, &d.LikesCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, apperr.NotFound("Post not found")
	}
	if err != nil {
		return Detail{}, fmt.Errorf("get post: %w", db.Classify(err))
	}
	return d, nil
}
