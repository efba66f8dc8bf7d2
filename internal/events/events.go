// Package events carries domain events out of the services once their
// writes have committed. Delivery is best effort: a failed publish is logged
// and never changes the result of the operation that produced it.
package events

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"
)

const (
	FollowToggled = "follow.toggled"
	LikeToggled   = "like.toggled"
	PostCreated   = "post.created"
)

type Event struct {
	Name       string    `json:"event"`
	Channel    string    `json:"channel"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

func New(name, channel string, payload any) Event {
	return Event{Name: name, Channel: channel, Payload: payload, OccurredAt: time.Now().UTC()}
}

// PostChannel and UserChannel name the live-stream channels clients subscribe to.
func PostChannel(postID int64) string { return "posts." + strconv.FormatInt(postID, 10) }

func UserChannel(userID int64) string { return "users." + strconv.FormatInt(userID, 10) }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Emit publishes evt and only logs a failure.
func Emit(ctx context.Context, pub Publisher, evt Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil {
		slog.WarnContext(ctx, "event publish failed", "event", evt.Name, "channel", evt.Channel, "error", err)
	}
}
