package models

import (
	"time"
)

// Comment is attached to a story and optionally to one of its chapters
type Comment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	StoryID   int64     `json:"story_id"`
	ChapterID *int64    `json:"chapter_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaxCommentLength is the maximum number of characters in a comment
const MaxCommentLength = 280

// MaxCommentList caps comment listings
const MaxCommentList = 100

// CreateCommentRequest is the body of POST /api/comments
type CreateCommentRequest struct {
	StoryID   int64  `json:"story_id"`
	ChapterID *int64 `json:"chapter_id"`
	Text      string `json:"text"`
}

// CommentFilter narrows a comment listing
type CommentFilter struct {
	StoryID   *int64
	ChapterID *int64
}
