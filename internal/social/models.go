package social

import "encoding/json"

type FollowResult struct {
	UserID         int64 `json:"userId"`
	TargetUserID   int64 `json:"targetUserId"`
	Following      bool  `json:"following"`
	FollowingCount int64 `json:"followingCount"`
}

type LikeResult struct {
	PostID     int64 `json:"postId"`
	UserID     int64 `json:"userId"`
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

type followRequest struct {
	TargetUserID json.Number `json:"targetUserId"`
}

type likeRequest struct {
	UserID json.Number `json:"userId"`
}
