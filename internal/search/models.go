package search

type UserHit struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type PostHit struct {
	PostID   int64  `json:"postId"`
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
}

type Result struct {
	Users []UserHit `json:"users"`
	Posts []PostHit `json:"posts"`
}

type searchRequest struct {
	Query string `json:"query"`
}
