package authz

import (
	"testing"
	"time"

	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/pkg/errorx"
	"github.com/stretchr/testify/assert"
)

var (
	author   = &Actor{ID: 1, Role: models.RoleWriter}
	stranger = &Actor{ID: 2, Role: models.RoleReader}
	admin    = &Actor{ID: 3, Role: models.RoleAdmin}
)

func publishedStory() *models.Story {
	now := time.Now()
	return &models.Story{ID: 10, AuthorID: author.ID, Status: models.StatusPublished, PublishedAt: &now}
}

func chapterOf(story *models.Story, status models.Status) *models.Chapter {
	return &models.Chapter{ID: 100, StoryID: story.ID, Number: 1, Status: status}
}

func assertCode(t *testing.T, err error, code errorx.Code) {
	t.Helper()
	if code == errorx.CodeUnknown {
		assert.NoError(t, err)
		return
	}
	assert.True(t, errorx.Is(err, code), "expected %s, got %v", code, err)
}

func TestGateChapter(t *testing.T) {
	gate := NewGate()
	deletedAt := time.Now()

	tests := []struct {
		name    string
		actor   *Actor
		status  models.Status
		deleted bool
		action  Action
		want    errorx.Code
	}{
		{"anonymous reads published", nil, models.StatusPublished, false, Read, errorx.CodeUnknown},
		{"anonymous reads draft", nil, models.StatusDraft, false, Read, errorx.Forbidden},
		{"stranger reads draft", stranger, models.StatusDraft, false, Read, errorx.Forbidden},
		{"author reads draft", author, models.StatusDraft, false, Read, errorx.CodeUnknown},
		{"admin reads draft", admin, models.StatusDraft, false, Read, errorx.CodeUnknown},
		{"anonymous updates", nil, models.StatusPublished, false, Update, errorx.Unauthorized},
		{"stranger updates", stranger, models.StatusPublished, false, Update, errorx.Forbidden},
		{"author updates", author, models.StatusDraft, false, Update, errorx.CodeUnknown},
		{"admin deletes", admin, models.StatusDraft, false, Delete, errorx.CodeUnknown},
		{"stranger deletes", stranger, models.StatusPublished, false, Delete, errorx.Forbidden},
		{"owner reads soft-deleted", author, models.StatusDeleted, true, Read, errorx.NotFound},
		{"admin reads soft-deleted", admin, models.StatusDeleted, true, Read, errorx.NotFound},
		{"owner deletes soft-deleted", author, models.StatusDeleted, true, Delete, errorx.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			story := publishedStory()
			chapter := chapterOf(story, tt.status)
			if tt.deleted {
				chapter.DeletedAt = &deletedAt
			}
			assertCode(t, gate.Chapter(tt.actor, story, chapter, tt.action), tt.want)
		})
	}
}

func TestGateChapter_WrongStoryIsNotFound(t *testing.T) {
	story := publishedStory()
	chapter := chapterOf(story, models.StatusPublished)
	chapter.StoryID = 999

	assertCode(t, NewGate().Chapter(author, story, chapter, Read), errorx.NotFound)
}

func TestGateChapter_DraftStoryHidesPublishedChapter(t *testing.T) {
	story := publishedStory()
	story.Status = models.StatusDraft
	chapter := chapterOf(story, models.StatusPublished)

	assertCode(t, NewGate().Chapter(stranger, story, chapter, Read), errorx.Forbidden)
	assertCode(t, NewGate().Chapter(author, story, chapter, Read), errorx.CodeUnknown)
}

func TestGateStory(t *testing.T) {
	gate := NewGate()
	deletedAt := time.Now()

	draft := publishedStory()
	draft.Status = models.StatusDraft
	deleted := publishedStory()
	deleted.Status = models.StatusDeleted
	deleted.DeletedAt = &deletedAt

	assertCode(t, gate.Story(nil, publishedStory(), Read), errorx.CodeUnknown)
	assertCode(t, gate.Story(nil, draft, Read), errorx.Forbidden)
	assertCode(t, gate.Story(author, draft, Read), errorx.CodeUnknown)
	assertCode(t, gate.Story(nil, draft, Update), errorx.Unauthorized)
	assertCode(t, gate.Story(stranger, draft, Update), errorx.Forbidden)
	assertCode(t, gate.Story(admin, draft, Update), errorx.CodeUnknown)
	assertCode(t, gate.Story(author, deleted, Read), errorx.NotFound)
	assertCode(t, gate.Story(author, nil, Read), errorx.NotFound)
	assertCode(t, gate.Story(stranger, publishedStory(), CreateChild), errorx.Forbidden)
}

func TestVisibleChapters(t *testing.T) {
	gate := NewGate()
	story := publishedStory()
	deletedAt := time.Now()

	chapters := []*models.Chapter{
		{ID: 1, StoryID: story.ID, Status: models.StatusPublished},
		{ID: 2, StoryID: story.ID, Status: models.StatusDraft},
		{ID: 3, StoryID: story.ID, Status: models.StatusDeleted, DeletedAt: &deletedAt},
	}

	assert.Len(t, gate.VisibleChapters(nil, story, chapters), 1)
	assert.Len(t, gate.VisibleChapters(stranger, story, chapters), 1)
	assert.Len(t, gate.VisibleChapters(author, story, chapters), 2)
	assert.Len(t, gate.VisibleChapters(admin, story, chapters), 2)
}

func TestStoryListScope(t *testing.T) {
	gate := NewGate()

	var f models.StoryFilter
	gate.StoryListScope(nil, &f)
	assert.Zero(t, f.ViewerID)
	assert.False(t, f.IncludeHidden)

	gate.StoryListScope(stranger, &f)
	assert.Equal(t, stranger.ID, f.ViewerID)
	assert.False(t, f.IncludeHidden)

	gate.StoryListScope(admin, &f)
	assert.True(t, f.IncludeHidden)
}
