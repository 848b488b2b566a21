// Package lifecycle applies status transitions to stories and chapters.
//
// Every status may move to every other status. A transition only decides
// which timestamps change alongside the status; callers persist the mutated
// entity as a single write.
package lifecycle

import (
	"time"

	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/pkg/errorx"
)

// ParseStatus converts a requested status into the closed Status type.
func ParseStatus(raw string) (models.Status, error) {
	s, err := models.ParseStatus(raw)
	if err != nil {
		return 0, errorx.New(errorx.InvalidStatus, "status must be one of DRAFT, PUBLISHED, DELETED")
	}
	return s, nil
}

// TransitionStory moves story to requested and updates published_at and deleted_at.
func TransitionStory(story *models.Story, requested models.Status, now time.Time) error {
	if !requested.Valid() {
		return errorx.New(errorx.InvalidStatus, "status must be one of DRAFT, PUBLISHED, DELETED")
	}

	story.PublishedAt = nextPublishedAt(story.Status, story.PublishedAt, requested, now)

	if requested != models.StatusDeleted {
		story.DeletedAt = nil
	} else if story.Status != models.StatusDeleted || story.DeletedAt == nil {
		story.DeletedAt = timePtr(now)
	}

	story.Status = requested
	story.UpdatedAt = now
	return nil
}

// TransitionChapter moves chapter to requested and updates published_at.
// deleted_at belongs to SoftDeleteChapter and is left as is.
func TransitionChapter(chapter *models.Chapter, requested models.Status, now time.Time) error {
	if !requested.Valid() {
		return errorx.New(errorx.InvalidStatus, "status must be one of DRAFT, PUBLISHED, DELETED")
	}

	chapter.PublishedAt = nextPublishedAt(chapter.Status, chapter.PublishedAt, requested, now)
	chapter.Status = requested
	chapter.UpdatedAt = now
	return nil
}

// SoftDeleteChapter marks chapter deleted. It stays in storage but is no longer visible.
func SoftDeleteChapter(chapter *models.Chapter, now time.Time) {
	chapter.Status = models.StatusDeleted
	chapter.PublishedAt = nil
	chapter.DeletedAt = timePtr(now)
	chapter.UpdatedAt = now
}

// nextPublishedAt stamps a fresh time on entry into PUBLISHED, keeps it while
// staying PUBLISHED and clears it otherwise.
func nextPublishedAt(current models.Status, publishedAt *time.Time, requested models.Status, now time.Time) *time.Time {
	if requested != models.StatusPublished {
		return nil
	}
	if current == models.StatusPublished && publishedAt != nil {
		return publishedAt
	}
	return timePtr(now)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
