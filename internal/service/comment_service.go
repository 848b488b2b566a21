package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/authz"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/repository"
	"github.com/storytelling-api/internal/validation"
	"github.com/storytelling-api/pkg/errorx"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos *repository.Repositories
	gate  *authz.Gate
	log   zerolog.Logger
}

func newCommentService(repos *repository.Repositories, gate *authz.Gate, log zerolog.Logger) *commentService {
	return &commentService{
		repos: repos,
		gate:  gate,
		log:   log.With().Str("service", "comment").Logger(),
	}
}

// Create posts a comment on a story, or on one of its chapters when ChapterID is set.
// The actor must be able to read the target.
func (s *commentService) Create(ctx context.Context, actor *authz.Actor, req *models.CreateCommentRequest) (*models.Comment, error) {
	if actor == nil {
		return nil, errorx.New(errorx.Unauthorized, "Authentication required")
	}

	var missing []string
	if req.StoryID == 0 {
		missing = append(missing, "story_id", "")
	}
	missing = append(missing, "text", trim(req.Text))
	if err := validation.Required(missing...); err != nil {
		return nil, err
	}
	text, err := validation.CommentText(req.Text)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeRead(ctx, actor, req.StoryID, req.ChapterID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		UserID:    actor.ID,
		StoryID:   req.StoryID,
		ChapterID: req.ChapterID,
		Text:      text,
	}
	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		return nil, unexpected(s.log, err, "Failed to create comment")
	}
	return comment, nil
}

// List returns up to 100 comments, newest first, dropping any whose story or
// chapter the actor cannot read
func (s *commentService) List(ctx context.Context, actor *authz.Actor, filter models.CommentFilter) ([]*models.Comment, error) {
	if filter.StoryID != nil {
		if err := s.authorizeRead(ctx, actor, *filter.StoryID, filter.ChapterID); err != nil {
			return nil, err
		}
	}

	comments, err := s.repos.Comment.List(ctx, filter, models.MaxCommentList)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to list comments")
	}
	if filter.StoryID != nil && filter.ChapterID != nil {
		return comments, nil
	}

	readable := make(map[[2]int64]bool)
	visible := make([]*models.Comment, 0, len(comments))
	for _, c := range comments {
		key := [2]int64{c.StoryID, 0}
		if c.ChapterID != nil {
			key[1] = *c.ChapterID
		}
		ok, seen := readable[key]
		if !seen {
			err := s.authorizeRead(ctx, actor, c.StoryID, c.ChapterID)
			if err != nil && errorx.Is(err, errorx.CodeUnknown) {
				return nil, err
			}
			ok = err == nil
			readable[key] = ok
		}
		if ok {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// authorizeRead checks that the story, and the chapter if given, are readable by actor
func (s *commentService) authorizeRead(ctx context.Context, actor *authz.Actor, storyID int64, chapterID *int64) error {
	story, err := loadStory(ctx, s.repos.Story, storyID, false)
	if err != nil {
		return unexpected(s.log, err, "Failed to load story")
	}
	if chapterID == nil {
		return s.gate.Story(actor, story, authz.Read)
	}

	chapter, err := s.repos.Chapter.GetByID(ctx, *chapterID)
	if errors.Is(err, repository.ErrNotFound) {
		chapter = nil
	} else if err != nil {
		return unexpected(s.log, err, "Failed to load chapter")
	}
	return s.gate.Chapter(actor, story, chapter, authz.Read)
}
