package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/storytelling-api/internal/database"
	"github.com/storytelling-api/internal/models"
)

// getOrCreate inserts (name, slug) into table unless a row already holds the
// name or the slug, then returns whichever row won. Concurrent callers with
// the same name converge on one row.
func getOrCreate(ctx context.Context, conn database.Querier, table, name, slug string) (id int64, gotName, gotSlug string, created bool, err error) {
	insert := `INSERT INTO ` + table + ` (name, slug) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		RETURNING id, name, slug`
	err = conn.QueryRowContext(ctx, insert, name, slug).Scan(&id, &gotName, &gotSlug)
	if err == nil {
		return id, gotName, gotSlug, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, "", "", false, err
	}

	lookup := `SELECT id, name, slug FROM ` + table + `
		WHERE name = $1 OR slug = $2
		ORDER BY (name = $1) DESC
		LIMIT 1`
	err = conn.QueryRowContext(ctx, lookup, name, slug).Scan(&id, &gotName, &gotSlug)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", "", false, ErrNotFound
	}
	return id, gotName, gotSlug, false, err
}

// categoryRepo is the concrete implementation of CategoryRepository
type categoryRepo struct {
	db *database.DB
}

// NewCategoryRepo creates a new category repository
func NewCategoryRepo(db *database.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) GetOrCreate(ctx context.Context, name, slug string) (*models.Category, bool, error) {
	id, gotName, gotSlug, created, err := getOrCreate(ctx, r.db.Conn(ctx), "categories", name, slug)
	if err != nil {
		return nil, false, err
	}
	return &models.Category{ID: id, Name: gotName, Slug: gotSlug}, created, nil
}

func (r *categoryRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.Conn(ctx).QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

func (r *categoryRepo) List(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, "SELECT id, name, slug FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// tagRepo is the concrete implementation of TagRepository
type tagRepo struct {
	db *database.DB
}

// NewTagRepo creates a new tag repository
func NewTagRepo(db *database.DB) TagRepository {
	return &tagRepo{db: db}
}

func (r *tagRepo) GetOrCreate(ctx context.Context, name, slug string) (*models.Tag, bool, error) {
	id, gotName, gotSlug, created, err := getOrCreate(ctx, r.db.Conn(ctx), "tags", name, slug)
	if err != nil {
		return nil, false, err
	}
	return &models.Tag{ID: id, Name: gotName, Slug: gotSlug}, created, nil
}

func (r *tagRepo) GetByIDs(ctx context.Context, ids []int64) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	rows, err := r.db.Conn(ctx).QueryContext(ctx,
		"SELECT id, name, slug FROM tags WHERE id = ANY($1) ORDER BY name", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]models.Tag, 0, len(ids))
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *tagRepo) List(ctx context.Context) ([]*models.Tag, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, "SELECT id, name, slug FROM tags ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}
