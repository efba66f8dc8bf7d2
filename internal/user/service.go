package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend-snapgraph/internal/apperr"
	"backend-snapgraph/internal/db"

	"github.com/jackc/pgx/v5"
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

// GetProfile returns the public profile of id with live relationship counts.
func (s *Service) GetProfile(ctx context.Context, id int64) (Profile, error) {
	if id <= 0 {
		return Profile{}, apperr.Validation("Invalid user ID")
	}

	row := s.db.QueryRow(ctx, `
		SELECT u.id, u.username, u.name, u.bio, u.profile_picture,
		       (SELECT COUNT(*) FROM follows WHERE following_id = u.id),
		       (SELECT COUNT(*) FROM follows WHERE follower_id = u.id),
		       (SELECT COUNT(*) FROM posts WHERE user_id = u.id)
		FROM users u
		WHERE u.id = $1
	`, id)
	var p Profile
	err := row.Scan(&p.UserID, &p.Username, &p.Name, &p.Bio, &p.ProfilePicture, &p.FollowersCount, &p.FollowingCount, &p.PostsCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", db.Classify(err))
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (Profile, error) {
	p, err := s.GetProfile(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if v := strings.TrimSpace(patch.Username); v != "" {
		p.Username = v
	}
	if patch.Name != "" {
		p.Name = patch.Name
	}
	if patch.Bio != "" {
		p.Bio = patch.Bio
	}
	if patch.ProfilePicture != "" {
		p.ProfilePicture = patch.ProfilePicture
	}

	_, err = s.db.Exec(ctx, `
		UPDATE users
		SET username=$2, name=$3, bio=$4, profile_picture=$5, updated_at=now()
		WHERE id=$1
	`, p.UserID, p.Username, p.Name, p.Bio, p.ProfilePicture)
	if err != nil {
		err = db.Classify(err)
		if apperr.KindOf(err) == apperr.KindConflict {
			return Profile{}, apperr.ErrConflict.WithMessage("Username already taken").WithInternal(err)
		}
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}
