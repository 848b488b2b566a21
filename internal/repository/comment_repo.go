package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/storytelling-api/internal/database"
	"github.com/storytelling-api/internal/models"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a new comment and fills its generated fields
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (user_id, story_id, chapter_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.db.Conn(ctx).QueryRowContext(ctx, query,
		comment.UserID, comment.StoryID, comment.ChapterID, comment.Text,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
}

// List returns comments matching filter, newest first
func (r *commentRepo) List(ctx context.Context, filter models.CommentFilter, limit int) ([]*models.Comment, error) {
	var where []string
	var args []any
	if filter.StoryID != nil {
		args = append(args, *filter.StoryID)
		where = append(where, fmt.Sprintf("story_id = $%d", len(args)))
	}
	if filter.ChapterID != nil {
		args = append(args, *filter.ChapterID)
		where = append(where, fmt.Sprintf("chapter_id = $%d", len(args)))
	}

	query := `SELECT id, user_id, story_id, chapter_id, text, created_at, updated_at FROM comments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		var comment models.Comment
		var chapterID sql.NullInt64
		if err := rows.Scan(
			&comment.ID, &comment.UserID, &comment.StoryID, &chapterID, &comment.Text,
			&comment.CreatedAt, &comment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if chapterID.Valid {
			comment.ChapterID = &chapterID.Int64
		}
		comments = append(comments, &comment)
	}
	return comments, rows.Err()
}
