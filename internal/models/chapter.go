package models

import (
	"time"
)

// Chapter belongs to a story. Number is author-defined ordering and is not unique.
type Chapter struct {
	ID          int64      `json:"id"`
	StoryID     int64      `json:"story_id"`
	Title       string     `json:"title"`
	Number      int        `json:"number"`
	Content     string     `json:"content"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
}

// MaxChapterTitleLength bounds chapter titles
const MaxChapterTitleLength = 200

// CreateChapterRequest is the body of POST /api/stories/:story_id/chapters
type CreateChapterRequest struct {
	Title   string  `json:"title"`
	Number  int     `json:"number"`
	Content string  `json:"content"`
	Status  *string `json:"status"`
}

// UpdateChapterRequest is the body of PATCH /api/stories/:story_id/chapters/:chapter_id
type UpdateChapterRequest struct {
	Title   *string `json:"title"`
	Number  *int    `json:"number"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
}
