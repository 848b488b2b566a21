package models

import (
	"time"
)

// StoryView counts how often a user opened a story. One row per (user, story).
type StoryView struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	StoryID      int64     `json:"story_id"`
	ViewCount    int       `json:"view_count"`
	LastViewedAt time.Time `json:"last_viewed_at"`
}

// RecentStory is a view row joined with the story it points at
type RecentStory struct {
	StoryView
	Title  string `json:"title"`
	Status Status `json:"status"`
}

// MaxRecentStories caps the recent-stories listing
const MaxRecentStories = 5
