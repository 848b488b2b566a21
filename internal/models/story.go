package models

import (
	"encoding/json"
	"time"
)

// Story represents an authored, multi-chapter work
type Story struct {
	ID          int64      `json:"id"`
	AuthorID    int64      `json:"author_id"`
	Title       string     `json:"title"`
	Synopsis    string     `json:"synopsis"`
	Status      Status     `json:"status"`
	CategoryID  *int64     `json:"category_id"`
	Tags        []Tag      `json:"tags"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
}

// MaxStoryTitleLength bounds both title and synopsis
const MaxStoryTitleLength = 200

// StoryFilter narrows a story listing. ViewerID and IncludeHidden decide which
// non-published stories are visible; soft-deleted stories are never listed.
type StoryFilter struct {
	AuthorID      *int64
	CategoryID    *int64
	TagSlug       string
	ViewerID      int64
	IncludeHidden bool
	Page          Page
}

// CreateStoryRequest is the body of POST /api/stories
type CreateStoryRequest struct {
	Title      string          `json:"title"`
	Synopsis   string          `json:"synopsis"`
	CategoryID json.RawMessage `json:"category_id"`
	Tags       json.RawMessage `json:"tags"`
}

// UpdateStoryRequest is the body of PATCH /api/stories/:story_id.
// Absent fields are left untouched; category_id may be null to clear it.
type UpdateStoryRequest struct {
	Title      *string         `json:"title"`
	Synopsis   *string         `json:"synopsis"`
	Status     *string         `json:"status"`
	CategoryID json.RawMessage `json:"category_id"`
	Tags       json.RawMessage `json:"tags"`
}

// StoryPage is a paginated story listing
type StoryPage struct {
	Items   []*Story `json:"items"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
	Total   int      `json:"total"`
}
