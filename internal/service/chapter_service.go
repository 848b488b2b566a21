package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/authz"
	"github.com/storytelling-api/internal/lifecycle"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/repository"
	"github.com/storytelling-api/internal/validation"
	"github.com/storytelling-api/pkg/errorx"
)

// chapterService is the concrete implementation of ChapterService
type chapterService struct {
	repos *repository.Repositories
	gate  *authz.Gate
	log   zerolog.Logger
	now   func() time.Time
}

func newChapterService(repos *repository.Repositories, gate *authz.Gate, log zerolog.Logger) *chapterService {
	return &chapterService{
		repos: repos,
		gate:  gate,
		log:   log.With().Str("service", "chapter").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a chapter to a story the actor manages. Chapters start in DRAFT;
// an initial status other than DELETED may be requested.
func (s *chapterService) Create(ctx context.Context, actor *authz.Actor, storyID int64, req *models.CreateChapterRequest) (*models.Chapter, error) {
	story, err := loadStory(ctx, s.repos.Story, storyID, false)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to load story")
	}
	if err := s.gate.Story(actor, story, authz.CreateChild); err != nil {
		return nil, err
	}

	title, content := trim(req.Title), trim(req.Content)
	missing := []string{"title", title, "content", content}
	if req.Number == 0 {
		missing = append(missing, "number", "")
	}
	if err := validation.Required(missing...); err != nil {
		return nil, err
	}
	if err := validateChapterFields(title, req.Number); err != nil {
		return nil, err
	}

	status := models.StatusDraft
	if req.Status != nil {
		if status, err = lifecycle.ParseStatus(*req.Status); err != nil {
			return nil, err
		}
		if status == models.StatusDeleted {
			return nil, errorx.New(errorx.InvalidStatus, "a new chapter cannot start as DELETED")
		}
	}

	chapter := &models.Chapter{
		StoryID: storyID,
		Title:   title,
		Number:  req.Number,
		Content: content,
		Status:  models.StatusDraft,
	}
	if err := lifecycle.TransitionChapter(chapter, status, s.now()); err != nil {
		return nil, err
	}

	if err := s.repos.Chapter.Create(ctx, chapter); err != nil {
		return nil, unexpected(s.log, err, "Failed to create chapter")
	}

	s.log.Info().Int64("story_id", storyID).Int64("chapter_id", chapter.ID).Msg("Chapter created")
	return chapter, nil
}

// Get returns a chapter the actor is allowed to read
func (s *chapterService) Get(ctx context.Context, actor *authz.Actor, storyID, chapterID int64) (*models.Chapter, error) {
	story, chapter, err := s.load(ctx, storyID, chapterID, false)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to load chapter")
	}
	if err := s.gate.Chapter(actor, story, chapter, authz.Read); err != nil {
		return nil, err
	}
	return chapter, nil
}

func (s *chapterService) Authorize(ctx context.Context, actor *authz.Actor, storyID, chapterID int64, action authz.Action) error {
	story, chapter, err := s.load(ctx, storyID, chapterID, false)
	if err != nil {
		return unexpected(s.log, err, "Failed to load chapter")
	}
	return s.gate.Chapter(actor, story, chapter, action)
}

// List returns the chapters of a story visible to actor, ordered by number
func (s *chapterService) List(ctx context.Context, actor *authz.Actor, storyID int64) ([]*models.Chapter, error) {
	story, err := loadStory(ctx, s.repos.Story, storyID, false)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to load story")
	}
	if err := s.gate.Story(actor, story, authz.Read); err != nil {
		return nil, err
	}

	chapters, err := s.repos.Chapter.ListByStory(ctx, storyID)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to list chapters")
	}
	return s.gate.VisibleChapters(actor, story, chapters), nil
}

// Update applies a partial update. A status of DELETED soft-deletes the chapter.
func (s *chapterService) Update(ctx context.Context, actor *authz.Actor, storyID, chapterID int64, req *models.UpdateChapterRequest) (*models.Chapter, error) {
	var updated *models.Chapter

	err := s.repos.Tx.InTx(ctx, func(ctx context.Context) error {
		story, chapter, err := s.load(ctx, storyID, chapterID, true)
		if err != nil {
			return unexpected(s.log, err, "Failed to lock chapter")
		}
		if err := s.gate.Chapter(actor, story, chapter, authz.Update); err != nil {
			return err
		}

		if req.Title != nil {
			chapter.Title = trim(*req.Title)
			if err := validation.Required("title", chapter.Title); err != nil {
				return err
			}
		}
		if req.Content != nil {
			chapter.Content = trim(*req.Content)
			if err := validation.Required("content", chapter.Content); err != nil {
				return err
			}
		}
		if req.Number != nil {
			chapter.Number = *req.Number
		}
		if err := validateChapterFields(chapter.Title, chapter.Number); err != nil {
			return err
		}

		now := s.now()
		if req.Status != nil {
			status, err := lifecycle.ParseStatus(*req.Status)
			if err != nil {
				return err
			}
			if status == models.StatusDeleted {
				lifecycle.SoftDeleteChapter(chapter, now)
			} else if err := lifecycle.TransitionChapter(chapter, status, now); err != nil {
				return err
			}
		}
		chapter.UpdatedAt = now

		if err := s.repos.Chapter.Update(ctx, chapter); err != nil {
			return unexpected(s.log, err, "Failed to update chapter")
		}
		updated = chapter
		return nil
	})
	if err != nil {
		return nil, passThrough(s.log, err, "Failed to update chapter")
	}
	return updated, nil
}

// Delete soft-deletes a chapter, or removes it and its comments when hard is set
func (s *chapterService) Delete(ctx context.Context, actor *authz.Actor, storyID, chapterID int64, hard bool) error {
	err := s.repos.Tx.InTx(ctx, func(ctx context.Context) error {
		story, chapter, err := s.load(ctx, storyID, chapterID, true)
		if err != nil {
			return unexpected(s.log, err, "Failed to lock chapter")
		}
		if err := s.gate.Chapter(actor, story, chapter, authz.Delete); err != nil {
			return err
		}

		if hard {
			if err := s.repos.Chapter.HardDelete(ctx, chapterID); err != nil {
				return unexpected(s.log, err, "Failed to delete chapter")
			}
			return nil
		}

		lifecycle.SoftDeleteChapter(chapter, s.now())
		if err := s.repos.Chapter.Update(ctx, chapter); err != nil {
			return unexpected(s.log, err, "Failed to soft-delete chapter")
		}
		return nil
	})
	if err != nil {
		return passThrough(s.log, err, "Failed to delete chapter")
	}

	s.log.Info().Int64("story_id", storyID).Int64("chapter_id", chapterID).Bool("hard", hard).Msg("Chapter deleted")
	return nil
}

// load fetches a story and one of its chapters. Missing rows come back as nil
// so that the gate produces the error.
func (s *chapterService) load(ctx context.Context, storyID, chapterID int64, lock bool) (*models.Story, *models.Chapter, error) {
	story, err := loadStory(ctx, s.repos.Story, storyID, false)
	if err != nil {
		return nil, nil, err
	}

	var chapter *models.Chapter
	if lock {
		chapter, err = s.repos.Chapter.GetForUpdate(ctx, chapterID)
	} else {
		chapter, err = s.repos.Chapter.GetByID(ctx, chapterID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return story, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return story, chapter, nil
}

func validateChapterFields(title string, number int) error {
	if err := validation.MaxLength("title", title, models.MaxChapterTitleLength); err != nil {
		return err
	}
	if number < 1 {
		return errorx.New(errorx.BadRequest, "number must be a positive integer")
	}
	return nil
}
