package models

// Follower is a directed edge: FollowerID follows FollowingID
type Follower struct {
	ID          int64 `json:"id"`
	FollowerID  int64 `json:"follower_id"`
	FollowingID int64 `json:"following_id"`
}

// MaxFollowList caps follow listings
const MaxFollowList = 100

// FollowRequest is the body of POST /api/follows
type FollowRequest struct {
	FollowingID int64 `json:"following_id"`
}

// FollowFilter selects edges by either endpoint
type FollowFilter struct {
	FollowerID  *int64
	FollowingID *int64
}
