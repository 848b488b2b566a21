package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/storytelling-api/internal/database"
	"github.com/storytelling-api/internal/models"
)

const chapterColumns = `id, story_id, title, number, content, status, published_at, created_at, updated_at, deleted_at`

// chapterRepo is the concrete implementation of ChapterRepository
type chapterRepo struct {
	db *database.DB
}

// NewChapterRepo creates a new chapter repository
func NewChapterRepo(db *database.DB) ChapterRepository {
	return &chapterRepo{db: db}
}

func scanChapter(row scanner) (*models.Chapter, error) {
	var chapter models.Chapter
	var publishedAt, deletedAt sql.NullTime

	err := row.Scan(
		&chapter.ID, &chapter.StoryID, &chapter.Title, &chapter.Number, &chapter.Content,
		&chapter.Status, &publishedAt, &chapter.CreatedAt, &chapter.UpdatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	chapter.PublishedAt = timePtr(publishedAt)
	chapter.DeletedAt = timePtr(deletedAt)
	return &chapter, nil
}

// Create inserts a new chapter and fills its generated fields
func (r *chapterRepo) Create(ctx context.Context, chapter *models.Chapter) error {
	query := `
		INSERT INTO chapters (story_id, title, number, content, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.db.Conn(ctx).QueryRowContext(ctx, query,
		chapter.StoryID, chapter.Title, chapter.Number, chapter.Content, chapter.Status, chapter.PublishedAt,
	).Scan(&chapter.ID, &chapter.CreatedAt, &chapter.UpdatedAt)
}

// GetByID retrieves a chapter, soft-deleted or not
func (r *chapterRepo) GetByID(ctx context.Context, id int64) (*models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE id = $1`
	return scanChapter(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
}

// GetForUpdate retrieves a chapter and locks its row
func (r *chapterRepo) GetForUpdate(ctx context.Context, id int64) (*models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE id = $1 FOR UPDATE`
	return scanChapter(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
}

// ListByStory returns live chapters of a story ordered by number, then id
func (r *chapterRepo) ListByStory(ctx context.Context, storyID int64) ([]*models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters
		WHERE story_id = $1 AND deleted_at IS NULL
		ORDER BY number, id`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chapters := []*models.Chapter{}
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, chapter)
	}
	return chapters, rows.Err()
}

// Update writes every mutable column of the chapter in one statement
func (r *chapterRepo) Update(ctx context.Context, chapter *models.Chapter) error {
	query := `
		UPDATE chapters SET
			title = $2, number = $3, content = $4, status = $5,
			published_at = $6, updated_at = $7, deleted_at = $8
		WHERE id = $1
	`
	res, err := r.db.Conn(ctx).ExecContext(ctx, query,
		chapter.ID, chapter.Title, chapter.Number, chapter.Content, chapter.Status,
		chapter.PublishedAt, chapter.UpdatedAt, chapter.DeletedAt,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// HardDelete removes the chapter row; its comments cascade
func (r *chapterRepo) HardDelete(ctx context.Context, id int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, "DELETE FROM chapters WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
