package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"backend-snapgraph/internal/apperr"
	"backend-snapgraph/internal/db"
	"backend-snapgraph/internal/events"

	"github.com/jackc/pgx/v5"
)

// Service owns the follow and like edges. Edges are only ever created or
// removed through the toggles below.
type Service struct {
	db  db.Pool
	pub events.Publisher
}

func NewService(pool db.Pool, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{db: pool, pub: pub}
}

// edge describes one relationship table to toggle.
type edge struct {
	remove string
	insert string
	exists string
}

var (
	followEdge = edge{
		remove: `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
		insert: `INSERT INTO follows (follower_id, following_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		exists: `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`,
	}
	likeEdge = edge{
		remove: `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`,
		insert: `INSERT INTO likes (user_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		exists: `SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND post_id = $2)`,
	}
)

// ToggleFollow follows targetID when followerID does not follow it yet and
// unfollows it otherwise. Following yourself is allowed.
func (s *Service) ToggleFollow(ctx context.Context, followerID, targetID int64) (FollowResult, error) {
	if followerID <= 0 {
		return FollowResult{}, apperr.Validation("Invalid user ID")
	}
	if targetID <= 0 {
		return FollowResult{}, apperr.Validation("Invalid target user ID")
	}

	following, err := s.toggle(ctx, followEdge, followerID, targetID, nil)
	if err != nil {
		return FollowResult{}, fmt.Errorf("toggle follow: %w", err)
	}

	count, err := s.FollowingCount(ctx, followerID)
	if err != nil {
		return FollowResult{}, err
	}

	res := FollowResult{
		UserID:         followerID,
		TargetUserID:   targetID,
		Following:      following,
		FollowingCount: count,
	}
	slog.DebugContext(ctx, "follow toggled", "user_id", followerID, "target_user_id", targetID, "following", following)
	events.Emit(ctx, s.pub, events.New(events.FollowToggled, events.UserChannel(targetID), res))
	return res, nil
}

// ToggleLike likes postID on behalf of userID, or removes the like. The post
// must exist.
func (s *Service) ToggleLike(ctx context.Context, userID, postID int64) (LikeResult, error) {
	if postID <= 0 {
		return LikeResult{}, apperr.Validation("Invalid post ID")
	}
	if userID <= 0 {
		return LikeResult{}, apperr.Validation("Invalid user ID")
	}

	liked, err := s.toggle(ctx, likeEdge, userID, postID, func(tx pgx.Tx) error {
		var found bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&found); err != nil {
			return db.Classify(err)
		}
		if !found {
			return apperr.NotFound("Post not found")
		}
		return nil
	})
	if err != nil {
		return LikeResult{}, fmt.Errorf("toggle like: %w", err)
	}

	count, err := s.LikesCount(ctx, postID)
	if err != nil {
		return LikeResult{}, err
	}

	res := LikeResult{
		PostID:     postID,
		UserID:     userID,
		Liked:      liked,
		LikesCount: count,
	}
	slog.DebugContext(ctx, "like toggled", "user_id", userID, "post_id", postID, "liked", liked)
	events.Emit(ctx, s.pub, events.New(events.LikeToggled, events.PostChannel(postID), res))
	return res, nil
}

// FollowingCount is the live number of users userID follows.
func (s *Service) FollowingCount(ctx context.Context, userID int64) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM follows WHERE follower_id = $1`, userID)
}

// LikesCount is the live number of likes on postID.
func (s *Service) LikesCount(ctx context.Context, postID int64) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID)
}

func (s *Service) count(ctx context.Context, query string, id int64) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, query, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", db.Classify(err))
	}
	return n, nil
}

// toggle flips the edge (a, b) in one transaction and reports whether it is
// active afterwards. check runs first inside the same transaction.
//
// The delete goes first: if it removed a row the edge was active. Otherwise
// the insert relies on the primary key; when it inserts nothing a concurrent
// toggle created the edge after our delete, and the committed state is read
// back instead of failing.
func (s *Service) toggle(ctx context.Context, e edge, a, b int64, check func(pgx.Tx) error) (bool, error) {
	var active bool
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if check != nil {
			if err := check(tx); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, e.remove, a, b)
		if err != nil {
			return db.Classify(err)
		}
		if tag.RowsAffected() > 0 {
			active = false
			return nil
		}

		tag, err = tx.Exec(ctx, e.insert, a, b)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return apperr.ErrNotFound.WithMessage("User not found").WithInternal(err)
			}
			return db.Classify(err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.ErrConflict
		}
		active = true
		return nil
	})
	if errors.Is(err, apperr.ErrConflict) {
		slog.DebugContext(ctx, "toggle lost a race, reading committed state", "a", a, "b", b)
		return s.edgeExists(ctx, e, a, b)
	}
	return active, err
}

func (s *Service) edgeExists(ctx context.Context, e edge, a, b int64) (bool, error) {
	var found bool
	if err := s.db.QueryRow(ctx, e.exists, a, b).Scan(&found); err != nil {
		return false, db.Classify(err)
	}
	return found, nil
}
