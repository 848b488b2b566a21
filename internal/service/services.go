package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/authz"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/repository"
	"github.com/storytelling-api/internal/token"
	"github.com/storytelling-api/pkg/auth"
	"github.com/storytelling-api/pkg/errorx"
)

// AuthService defines registration, login and session operations
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	Logout(ctx context.Context, accessToken string) error
	// Authenticate resolves an access token to an active user
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// UserService defines profile operations
type UserService interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, page models.Page) (*models.UserPage, error)
	UpdateProfile(ctx context.Context, userID int64, req *models.UpdateProfileRequest) (*models.User, error)
}

// StoryService defines story operations. A nil actor is an anonymous caller.
type StoryService interface {
	Create(ctx context.Context, actor *authz.Actor, req *models.CreateStoryRequest) (*models.Story, error)
	Get(ctx context.Context, actor *authz.Actor, id int64) (*models.Story, error)
	List(ctx context.Context, actor *authz.Actor, filter models.StoryFilter) (*models.StoryPage, error)
	// Authorize reports whether actor may perform action on the story without changing it
	Authorize(ctx context.Context, actor *authz.Actor, id int64, action authz.Action) error
	Update(ctx context.Context, actor *authz.Actor, id int64, req *models.UpdateStoryRequest) (*models.Story, error)
	Delete(ctx context.Context, actor *authz.Actor, id int64, hard bool) error
}

// ChapterService defines chapter operations
type ChapterService interface {
	Create(ctx context.Context, actor *authz.Actor, storyID int64, req *models.CreateChapterRequest) (*models.Chapter, error)
	Get(ctx context.Context, actor *authz.Actor, storyID, chapterID int64) (*models.Chapter, error)
	List(ctx context.Context, actor *authz.Actor, storyID int64) ([]*models.Chapter, error)
	Authorize(ctx context.Context, actor *authz.Actor, storyID, chapterID int64, action authz.Action) error
	Update(ctx context.Context, actor *authz.Actor, storyID, chapterID int64, req *models.UpdateChapterRequest) (*models.Chapter, error)
	Delete(ctx context.Context, actor *authz.Actor, storyID, chapterID int64, hard bool) error
}

// CommentService defines comment operations
type CommentService interface {
	Create(ctx context.Context, actor *authz.Actor, req *models.CreateCommentRequest) (*models.Comment, error)
	List(ctx context.Context, actor *authz.Actor, filter models.CommentFilter) ([]*models.Comment, error)
}

// FollowService defines the social graph operations
type FollowService interface {
	Follow(ctx context.Context, followerID, followingID int64) (*models.Follower, error)
	Unfollow(ctx context.Context, followerID, followingID int64) error
	List(ctx context.Context, filter models.FollowFilter) ([]*models.Follower, error)
}

// TaxonomyService defines category and tag operations. The bool reports
// whether a new row was created.
type TaxonomyService interface {
	CreateCategory(ctx context.Context, name string) (*models.Category, bool, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	CreateTag(ctx context.Context, name string) (*models.Tag, bool, error)
	ListTags(ctx context.Context) ([]*models.Tag, error)
}

// ViewService defines the view ledger operations
type ViewService interface {
	RecordView(ctx context.Context, actor *authz.Actor, storyID int64) (*models.StoryView, error)
	RecentStories(ctx context.Context, userID int64) ([]*models.RecentStory, error)
}

// Services holds all service interfaces
type Services struct {
	Auth     AuthService
	User     UserService
	Story    StoryService
	Chapter  ChapterService
	Comment  CommentService
	Follow   FollowService
	Taxonomy TaxonomyService
	View     ViewService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, tokens *token.Manager, hasher *auth.Hasher, log zerolog.Logger) *Services {
	gate := authz.NewGate()

	return &Services{
		Auth:     newAuthService(repos, tokens, hasher, log),
		User:     newUserService(repos, log),
		Story:    newStoryService(repos, gate, log),
		Chapter:  newChapterService(repos, gate, log),
		Comment:  newCommentService(repos, gate, log),
		Follow:   newFollowService(repos, log),
		Taxonomy: newTaxonomyService(repos, log),
		View:     newViewService(repos, gate, log),
	}
}

// unexpected logs an infrastructure failure and hides it from the caller
func unexpected(log zerolog.Logger, err error, msg string) error {
	log.Error().Err(err).Msg(msg)
	return errorx.Unknown
}

// passThrough keeps domain errors raised inside a transaction and treats
// anything else as unexpected
func passThrough(log zerolog.Logger, err error, msg string) error {
	if err == nil {
		return nil
	}
	var xerr errorx.Error
	if errors.As(err, &xerr) {
		return xerr
	}
	return unexpected(log, err, msg)
}
