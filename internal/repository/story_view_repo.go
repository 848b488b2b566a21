package repository

import (
	"context"

	"github.com/storytelling-api/internal/database"
	"github.com/storytelling-api/internal/models"
)

// storyViewRepo is the concrete implementation of StoryViewRepository
type storyViewRepo struct {
	db *database.DB
}

// NewStoryViewRepo creates a new story view repository
func NewStoryViewRepo(db *database.DB) StoryViewRepository {
	return &storyViewRepo{db: db}
}

// Record relies on UNIQUE (user_id, story_id) so that concurrent first views
// collapse into one row instead of racing a read-then-insert.
func (r *storyViewRepo) Record(ctx context.Context, userID, storyID int64) (*models.StoryView, error) {
	query := `
		INSERT INTO story_views (user_id, story_id, view_count, last_viewed_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id, story_id) DO UPDATE SET
			view_count = story_views.view_count + 1,
			last_viewed_at = NOW()
		RETURNING id, user_id, story_id, view_count, last_viewed_at
	`
	var view models.StoryView
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, userID, storyID).Scan(
		&view.ID, &view.UserID, &view.StoryID, &view.ViewCount, &view.LastViewedAt,
	)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Recent returns the user's most recently viewed stories that still exist
func (r *storyViewRepo) Recent(ctx context.Context, userID int64, limit int) ([]*models.RecentStory, error) {
	query := `
		SELECT v.id, v.user_id, v.story_id, v.view_count, v.last_viewed_at, s.title, s.status
		FROM story_views v JOIN stories s ON s.id = v.story_id
		WHERE v.user_id = $1 AND s.deleted_at IS NULL
		ORDER BY v.last_viewed_at DESC, v.id DESC
		LIMIT $2
	`
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recent := []*models.RecentStory{}
	for rows.Next() {
		var rs models.RecentStory
		if err := rows.Scan(
			&rs.ID, &rs.UserID, &rs.StoryID, &rs.ViewCount, &rs.LastViewedAt, &rs.Title, &rs.Status,
		); err != nil {
			return nil, err
		}
		recent = append(recent, &rs)
	}
	return recent, rows.Err()
}
