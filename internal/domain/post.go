package domain

import "time"

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Media     string    `json:"media,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostView is the serialized form of a post, with the author identity and
// reaction lists resolved through the trust flag join.
type PostView struct {
	Post
	Author        UserSummary   `json:"author"`
	TotalLikes    int           `json:"total_likes"`
	Likes         []UserSummary `json:"user_likes_list"`
	TotalVerifies int           `json:"total_verifies"`
	Verifies      []UserSummary `json:"user_verifies_list"`
	TotalComments int           `json:"total_comments"`
	Comments      []CommentView `json:"comments"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	AuthorID  string    `json:"-"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentView struct {
	Comment
	Author  UserSummary   `json:"author"`
	Replies []CommentView `json:"replies"`
}

type Report struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	ReportedBy string    `json:"reported_by"`
	Reason     string    `json:"reason"`
	Reviewed   bool      `json:"reviewed"`
	CreatedAt  time.Time `json:"created_at"`
}
