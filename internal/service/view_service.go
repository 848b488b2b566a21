package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/authz"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/repository"
	"github.com/storytelling-api/pkg/errorx"
)

// viewService is the concrete implementation of ViewService
type viewService struct {
	stories repository.StoryRepository
	views   repository.StoryViewRepository
	gate    *authz.Gate
	log     zerolog.Logger
}

func newViewService(repos *repository.Repositories, gate *authz.Gate, log zerolog.Logger) *viewService {
	return &viewService{
		stories: repos.Story,
		views:   repos.StoryView,
		gate:    gate,
		log:     log.With().Str("service", "view").Logger(),
	}
}

// RecordView counts one more view of a readable story by actor
func (s *viewService) RecordView(ctx context.Context, actor *authz.Actor, storyID int64) (*models.StoryView, error) {
	if actor == nil {
		return nil, errorx.New(errorx.Unauthorized, "Authentication required")
	}

	story, err := loadStory(ctx, s.stories, storyID, false)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to load story")
	}
	if err := s.gate.Story(actor, story, authz.Read); err != nil {
		return nil, err
	}

	view, err := s.views.Record(ctx, actor.ID, storyID)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to record view")
	}
	return view, nil
}

// RecentStories returns the user's latest viewed stories
func (s *viewService) RecentStories(ctx context.Context, userID int64) ([]*models.RecentStory, error) {
	recent, err := s.views.Recent(ctx, userID, models.MaxRecentStories)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to load recent stories")
	}
	return recent, nil
}
