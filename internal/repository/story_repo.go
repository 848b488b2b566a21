package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/storytelling-api/internal/database"
	"github.com/storytelling-api/internal/models"
)

const storyColumns = `s.id, s.author_id, s.title, s.synopsis, s.status, s.category_id,
	s.published_at, s.created_at, s.updated_at, s.deleted_at`

// storyRepo is the concrete implementation of StoryRepository
type storyRepo struct {
	db *database.DB
}

// NewStoryRepo creates a new story repository
func NewStoryRepo(db *database.DB) StoryRepository {
	return &storyRepo{db: db}
}

func scanStory(row scanner) (*models.Story, error) {
	var story models.Story
	var categoryID sql.NullInt64
	var publishedAt, deletedAt sql.NullTime

	err := row.Scan(
		&story.ID, &story.AuthorID, &story.Title, &story.Synopsis, &story.Status, &categoryID,
		&publishedAt, &story.CreatedAt, &story.UpdatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		story.CategoryID = &categoryID.Int64
	}
	story.PublishedAt = timePtr(publishedAt)
	story.DeletedAt = timePtr(deletedAt)
	story.Tags = []models.Tag{}
	return &story, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// Create inserts a new story and fills its generated fields. Tags are written separately.
func (r *storyRepo) Create(ctx context.Context, story *models.Story) error {
	query := `
		INSERT INTO stories (author_id, title, synopsis, status, category_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.db.Conn(ctx).QueryRowContext(ctx, query,
		story.AuthorID, story.Title, story.Synopsis, story.Status, story.CategoryID, story.PublishedAt,
	).Scan(&story.ID, &story.CreatedAt, &story.UpdatedAt)
}

// GetByID retrieves a story with its tags
func (r *storyRepo) GetByID(ctx context.Context, id int64) (*models.Story, error) {
	return r.get(ctx, `SELECT `+storyColumns+` FROM stories s WHERE s.id = $1`, id)
}

// GetForUpdate retrieves a story and locks its row
func (r *storyRepo) GetForUpdate(ctx context.Context, id int64) (*models.Story, error) {
	return r.get(ctx, `SELECT `+storyColumns+` FROM stories s WHERE s.id = $1 FOR UPDATE`, id)
}

func (r *storyRepo) get(ctx context.Context, query string, id int64) (*models.Story, error) {
	story, err := scanStory(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, []*models.Story{story}); err != nil {
		return nil, err
	}
	return story, nil
}

// List returns one page of stories visible under filter, newest publication first
func (r *storyRepo) List(ctx context.Context, filter models.StoryFilter) ([]*models.Story, int, error) {
	conn := r.db.Conn(ctx)

	where := []string{"s.deleted_at IS NULL"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeHidden {
		if filter.ViewerID != 0 {
			where = append(where, "(s.status = 'published' OR s.author_id = "+arg(filter.ViewerID)+")")
		} else {
			where = append(where, "s.status = 'published'")
		}
	}
	if filter.AuthorID != nil {
		where = append(where, "s.author_id = "+arg(*filter.AuthorID))
	}
	if filter.CategoryID != nil {
		where = append(where, "s.category_id = "+arg(*filter.CategoryID))
	}
	if filter.TagSlug != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM story_tags st JOIN tags t ON t.id = st.tag_id
			WHERE st.story_id = s.id AND t.slug = `+arg(filter.TagSlug)+`)`)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM stories s WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + storyColumns + ` FROM stories s WHERE ` + cond +
		` ORDER BY s.published_at DESC NULLS LAST, s.id DESC` +
		` LIMIT ` + arg(filter.Page.Limit()) + ` OFFSET ` + arg(filter.Page.Offset())

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	stories := make([]*models.Story, 0, filter.Page.Limit())
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, 0, err
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachTags(ctx, stories); err != nil {
		return nil, 0, err
	}
	return stories, total, nil
}

// attachTags loads the tags of all given stories with one query
func (r *storyRepo) attachTags(ctx context.Context, stories []*models.Story) error {
	if len(stories) == 0 {
		return nil
	}

	ids := make([]int64, len(stories))
	byID := make(map[int64]*models.Story, len(stories))
	for i, s := range stories {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	query := `
		SELECT st.story_id, t.id, t.name, t.slug
		FROM story_tags st JOIN tags t ON t.id = st.tag_id
		WHERE st.story_id = ANY($1)
		ORDER BY t.name
	`
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var storyID int64
		var tag models.Tag
		if err := rows.Scan(&storyID, &tag.ID, &tag.Name, &tag.Slug); err != nil {
			return err
		}
		if s, ok := byID[storyID]; ok {
			s.Tags = append(s.Tags, tag)
		}
	}
	return rows.Err()
}

// Update writes every mutable column of the story in one statement
func (r *storyRepo) Update(ctx context.Context, story *models.Story) error {
	query := `
		UPDATE stories SET
			title = $2, synopsis = $3, status = $4, category_id = $5,
			published_at = $6, updated_at = $7, deleted_at = $8
		WHERE id = $1
	`
	res, err := r.db.Conn(ctx).ExecContext(ctx, query,
		story.ID, story.Title, story.Synopsis, story.Status, story.CategoryID,
		story.PublishedAt, story.UpdatedAt, story.DeletedAt,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// SetTags replaces the tag set of a story
func (r *storyRepo) SetTags(ctx context.Context, storyID int64, tagIDs []int64) error {
	conn := r.db.Conn(ctx)
	if _, err := conn.ExecContext(ctx, "DELETE FROM story_tags WHERE story_id = $1", storyID); err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := conn.ExecContext(ctx, `
		INSERT INTO story_tags (story_id, tag_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, storyID, pq.Array(tagIDs))
	return err
}

// HardDelete removes the story row; chapters, comments, tags links and views cascade
func (r *storyRepo) HardDelete(ctx context.Context, id int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, "DELETE FROM stories WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
