package post

import (
	"encoding/json"
	"time"
)

type Author struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// Summary is the public projection of a post, with its author denormalized.
type Summary struct {
	PostID    int64     `json:"postId"`
	ImageURL  string    `json:"imageUrl"`
	Caption   string    `json:"caption"`
	Hashtags  string    `json:"hashtags"`
	CreatedAt time.Time `json:"createdAt"`
	User      Author    `json:"user"`
}

type Detail struct {
	Summary
	LikesCount int64 `json:"likesCount"`
}

type CreateInput struct {
	UserID   int64
	ImageURL string
	Caption  string
	Hashtags string
}

type createRequest struct {
	UserID   json.Number `json:"userId"`
	ImageURL string      `json:"imageUrl"`
	Caption  string      `json:"caption"`
	Hashtags string      `json:"hashtags"`
}
