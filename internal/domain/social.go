package domain

import "time"

// Follow links follower -> followee, unique per pair.
type Follow struct {
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile is the full user view returned by GET /users/:id, mirroring the
// counts and nested lists the clients render.
type Profile struct {
	User
	Professional *VetProfessional `json:"vet_professional_info,omitempty"`
	NumPosts     int              `json:"num_posts"`
	Posts        []PostView       `json:"posts"`
	NumItems     int              `json:"num_items"`
	Items        []ItemView       `json:"items_list"`
	NumSaves     int              `json:"num_saves"`
	Saves        []ItemView       `json:"saves_list"`
	NumFollowers int              `json:"num_followers"`
	Followers    []UserSummary    `json:"followers"`
	NumFollowing int              `json:"num_following"`
	Following    []UserSummary    `json:"followings"`
}
