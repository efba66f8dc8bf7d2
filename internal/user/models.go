package user

type Profile struct {
	UserID         int64  `json:"userId"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
	FollowersCount int64  `json:"followersCount"`
	FollowingCount int64  `json:"followingCount"`
	PostsCount     int64  `json:"postsCount"`
}

// ProfilePatch holds the editable fields; empty fields are left unchanged.
type ProfilePatch struct {
	Username       string `json:"username"`
	Name           string `json:"name"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
}
