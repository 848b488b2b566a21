package repository

import (
	"context"
	"errors"

	"github.com/storytelling-api/internal/database"
	"github.com/storytelling-api/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert or update hits a unique constraint
	ErrDuplicate = errors.New("duplicate record")
)

// Transactor runs fn atomically. Repositories called with the ctx handed to fn
// take part in the same transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, page models.Page) ([]*models.User, int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

// StoryRepository defines the interface for story data operations.
// Lookups return soft-deleted rows too; visibility is decided by the caller.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id int64) (*models.Story, error)
	// GetForUpdate locks the row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id int64) (*models.Story, error)
	List(ctx context.Context, filter models.StoryFilter) ([]*models.Story, int, error)
	Update(ctx context.Context, story *models.Story) error
	SetTags(ctx context.Context, storyID int64, tagIDs []int64) error
	HardDelete(ctx context.Context, id int64) error
}

// ChapterRepository defines the interface for chapter data operations
type ChapterRepository interface {
	Create(ctx context.Context, chapter *models.Chapter) error
	GetByID(ctx context.Context, id int64) (*models.Chapter, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Chapter, error)
	// ListByStory returns the chapters of a story that are not soft-deleted,
	// ordered by number then id
	ListByStory(ctx context.Context, storyID int64) ([]*models.Chapter, error)
	Update(ctx context.Context, chapter *models.Chapter) error
	HardDelete(ctx context.Context, id int64) error
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// List returns the newest comments first
	List(ctx context.Context, filter models.CommentFilter, limit int) ([]*models.Comment, error)
}

// FollowerRepository defines the interface for the follow graph
type FollowerRepository interface {
	Create(ctx context.Context, edge *models.Follower) error
	// DeleteNewest removes the most recent matching edge
	DeleteNewest(ctx context.Context, followerID, followingID int64) error
	List(ctx context.Context, filter models.FollowFilter, limit int) ([]*models.Follower, error)
}

// CategoryRepository defines the interface for categories
type CategoryRepository interface {
	// GetOrCreate returns the category matching name or slug, creating it when
	// none exists. created reports which of the two happened.
	GetOrCreate(ctx context.Context, name, slug string) (category *models.Category, created bool, err error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]*models.Category, error)
}

// TagRepository defines the interface for tags
type TagRepository interface {
	GetOrCreate(ctx context.Context, name, slug string) (tag *models.Tag, created bool, err error)
	// GetByIDs returns the tags that exist among ids
	GetByIDs(ctx context.Context, ids []int64) ([]models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
}

// StoryViewRepository defines the interface for the view ledger
type StoryViewRepository interface {
	// Record creates the (user, story) row with a count of one or bumps the
	// existing row, in one atomic statement
	Record(ctx context.Context, userID, storyID int64) (*models.StoryView, error)
	Recent(ctx context.Context, userID int64, limit int) ([]*models.RecentStory, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Tx        Transactor
	User      UserRepository
	Story     StoryRepository
	Chapter   ChapterRepository
	Comment   CommentRepository
	Follower  FollowerRepository
	Category  CategoryRepository
	Tag       TagRepository
	StoryView StoryViewRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Tx:        db,
		User:      NewUserRepo(db),
		Story:     NewStoryRepo(db),
		Chapter:   NewChapterRepo(db),
		Comment:   NewCommentRepo(db),
		Follower:  NewFollowerRepo(db),
		Category:  NewCategoryRepo(db),
		Tag:       NewTagRepo(db),
		StoryView: NewStoryViewRepo(db),
	}
}
