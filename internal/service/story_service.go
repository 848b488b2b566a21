package service

import (
	"context"
	"encoding/json"
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

// storyService is the concrete implementation of StoryService
type storyService struct {
	repos *repository.Repositories
	gate  *authz.Gate
	log   zerolog.Logger
	now   func() time.Time
}

func newStoryService(repos *repository.Repositories, gate *authz.Gate, log zerolog.Logger) *storyService {
	return &storyService{
		repos: repos,
		gate:  gate,
		log:   log.With().Str("service", "story").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new DRAFT story authored by actor
func (s *storyService) Create(ctx context.Context, actor *authz.Actor, req *models.CreateStoryRequest) (*models.Story, error) {
	if actor == nil {
		return nil, errorx.New(errorx.Unauthorized, "Authentication required")
	}

	title := trim(req.Title)
	if err := validation.Required("title", title); err != nil {
		return nil, err
	}
	synopsis := trim(req.Synopsis)
	if err := validateStoryText(title, synopsis); err != nil {
		return nil, err
	}

	story := &models.Story{
		AuthorID: actor.ID,
		Title:    title,
		Synopsis: synopsis,
		Status:   models.StatusDraft,
		Tags:     []models.Tag{},
	}

	err := s.repos.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.applyTaxonomy(ctx, story, req.CategoryID, req.Tags, true); err != nil {
			return err
		}
		if err := s.repos.Story.Create(ctx, story); err != nil {
			return unexpected(s.log, err, "Failed to create story")
		}
		return s.saveTags(ctx, story, req.Tags)
	})
	if err != nil {
		return nil, passThrough(s.log, err, "Failed to create story")
	}

	s.log.Info().Int64("story_id", story.ID).Int64("author_id", story.AuthorID).Msg("Story created")
	return story, nil
}

// Get returns a story the actor is allowed to read
func (s *storyService) Get(ctx context.Context, actor *authz.Actor, id int64) (*models.Story, error) {
	story, err := loadStory(ctx, s.repos.Story, id, false)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to load story")
	}
	if err := s.gate.Story(actor, story, authz.Read); err != nil {
		return nil, err
	}
	return story, nil
}

// Authorize runs the gate for action without taking a lock. Update checks
// again under the row lock.
func (s *storyService) Authorize(ctx context.Context, actor *authz.Actor, id int64, action authz.Action) error {
	story, err := loadStory(ctx, s.repos.Story, id, false)
	if err != nil {
		return unexpected(s.log, err, "Failed to load story")
	}
	return s.gate.Story(actor, story, action)
}

// List returns one page of stories visible to actor
func (s *storyService) List(ctx context.Context, actor *authz.Actor, filter models.StoryFilter) (*models.StoryPage, error) {
	s.gate.StoryListScope(actor, &filter)

	stories, total, err := s.repos.Story.List(ctx, filter)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to list stories")
	}
	return &models.StoryPage{
		Items:   stories,
		Page:    filter.Page.Page,
		PerPage: filter.Page.PerPage,
		Total:   total,
	}, nil
}

// Update applies a partial update. A status change goes through the
// lifecycle engine and is written together with its timestamps.
func (s *storyService) Update(ctx context.Context, actor *authz.Actor, id int64, req *models.UpdateStoryRequest) (*models.Story, error) {
	var updated *models.Story

	err := s.repos.Tx.InTx(ctx, func(ctx context.Context) error {
		story, err := loadStory(ctx, s.repos.Story, id, true)
		if err != nil {
			return unexpected(s.log, err, "Failed to lock story")
		}
		if err := s.gate.Story(actor, story, authz.Update); err != nil {
			return err
		}

		if req.Title != nil {
			story.Title = trim(*req.Title)
			if err := validation.Required("title", story.Title); err != nil {
				return err
			}
		}
		if req.Synopsis != nil {
			story.Synopsis = trim(*req.Synopsis)
		}
		if err := validateStoryText(story.Title, story.Synopsis); err != nil {
			return err
		}

		if err := s.applyTaxonomy(ctx, story, req.CategoryID, req.Tags, false); err != nil {
			return err
		}

		now := s.now()
		if req.Status != nil {
			status, err := lifecycle.ParseStatus(*req.Status)
			if err != nil {
				return err
			}
			if err := lifecycle.TransitionStory(story, status, now); err != nil {
				return err
			}
		}
		story.UpdatedAt = now

		if err := s.repos.Story.Update(ctx, story); err != nil {
			return unexpected(s.log, err, "Failed to update story")
		}
		if err := s.saveTags(ctx, story, req.Tags); err != nil {
			return err
		}
		updated = story
		return nil
	})
	if err != nil {
		return nil, passThrough(s.log, err, "Failed to update story")
	}

	if req.Status != nil {
		s.log.Info().Int64("story_id", id).Str("status", updated.Status.String()).Msg("Story status changed")
	}
	return updated, nil
}

// Delete soft-deletes a story, or removes it with everything it owns when hard is set
func (s *storyService) Delete(ctx context.Context, actor *authz.Actor, id int64, hard bool) error {
	err := s.repos.Tx.InTx(ctx, func(ctx context.Context) error {
		story, err := loadStory(ctx, s.repos.Story, id, true)
		if err != nil {
			return unexpected(s.log, err, "Failed to lock story")
		}
		if err := s.gate.Story(actor, story, authz.Delete); err != nil {
			return err
		}

		if hard {
			if err := s.repos.Story.HardDelete(ctx, id); err != nil {
				return unexpected(s.log, err, "Failed to delete story")
			}
			return nil
		}

		now := s.now()
		if err := lifecycle.TransitionStory(story, models.StatusDeleted, now); err != nil {
			return err
		}
		if err := s.repos.Story.Update(ctx, story); err != nil {
			return unexpected(s.log, err, "Failed to soft-delete story")
		}
		return nil
	})
	if err != nil {
		return passThrough(s.log, err, "Failed to delete story")
	}

	s.log.Info().Int64("story_id", id).Bool("hard", hard).Msg("Story deleted")
	return nil
}

// applyTaxonomy validates category_id and tags from the request and applies
// them to story. Absent fields are left untouched.
func (s *storyService) applyTaxonomy(ctx context.Context, story *models.Story, rawCategory, rawTags json.RawMessage, creating bool) error {
	categoryID, present, err := validation.CategoryID(rawCategory)
	if err != nil {
		return err
	}
	if present {
		if categoryID != nil {
			exists, err := s.repos.Category.Exists(ctx, *categoryID)
			if err != nil {
				return unexpected(s.log, err, "Failed to check category")
			}
			if !exists {
				return errorx.New(errorx.InvalidCategoryID, "category %d does not exist", *categoryID)
			}
		}
		story.CategoryID = categoryID
	}

	tagIDs, present, err := validation.TagIDs(rawTags)
	if err != nil {
		return err
	}
	if !present {
		if creating {
			story.Tags = []models.Tag{}
		}
		return nil
	}
	tags, err := s.repos.Tag.GetByIDs(ctx, tagIDs)
	if err != nil {
		return unexpected(s.log, err, "Failed to load tags")
	}
	if len(tags) != len(tagIDs) {
		return errorx.New(errorx.InvalidTags, "tags contain unknown ids")
	}
	story.Tags = tags
	return nil
}

// saveTags persists story.Tags when the request carried a tags field
func (s *storyService) saveTags(ctx context.Context, story *models.Story, rawTags json.RawMessage) error {
	if len(rawTags) == 0 {
		return nil
	}
	ids := make([]int64, len(story.Tags))
	for i, t := range story.Tags {
		ids[i] = t.ID
	}
	if err := s.repos.Story.SetTags(ctx, story.ID, ids); err != nil {
		return unexpected(s.log, err, "Failed to save story tags")
	}
	return nil
}

func validateStoryText(title, synopsis string) error {
	if err := validation.MaxLength("title", title, models.MaxStoryTitleLength); err != nil {
		return err
	}
	return validation.MaxLength("synopsis", synopsis, models.MaxStoryTitleLength)
}

// loadStory returns nil without error when the story does not exist, leaving
// the NotFound decision to the gate
func loadStory(ctx context.Context, repo repository.StoryRepository, id int64, lock bool) (*models.Story, error) {
	var story *models.Story
	var err error
	if lock {
		story, err = repo.GetForUpdate(ctx, id)
	} else {
		story, err = repo.GetByID(ctx, id)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return story, err
}
