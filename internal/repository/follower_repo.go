package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/storytelling-api/internal/database"
	"github.com/storytelling-api/internal/models"
)

// followerRepo is the concrete implementation of FollowerRepository
type followerRepo struct {
	db *database.DB
}

// NewFollowerRepo creates a new follower repository
func NewFollowerRepo(db *database.DB) FollowerRepository {
	return &followerRepo{db: db}
}

// Create inserts a follow edge. Repeated edges between the same pair are allowed.
func (r *followerRepo) Create(ctx context.Context, edge *models.Follower) error {
	query := `INSERT INTO followers (follower_id, following_id) VALUES ($1, $2) RETURNING id`
	return r.db.Conn(ctx).QueryRowContext(ctx, query, edge.FollowerID, edge.FollowingID).Scan(&edge.ID)
}

// DeleteNewest removes the highest-id edge between the pair
func (r *followerRepo) DeleteNewest(ctx context.Context, followerID, followingID int64) error {
	query := `
		DELETE FROM followers WHERE id = (
			SELECT id FROM followers
			WHERE follower_id = $1 AND following_id = $2
			ORDER BY id DESC
			LIMIT 1
		)
	`
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, followerID, followingID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// List returns edges matching filter, newest first
func (r *followerRepo) List(ctx context.Context, filter models.FollowFilter, limit int) ([]*models.Follower, error) {
	var where []string
	var args []any
	if filter.FollowerID != nil {
		args = append(args, *filter.FollowerID)
		where = append(where, fmt.Sprintf("follower_id = $%d", len(args)))
	}
	if filter.FollowingID != nil {
		args = append(args, *filter.FollowingID)
		where = append(where, fmt.Sprintf("following_id = $%d", len(args)))
	}

	query := `SELECT id, follower_id, following_id FROM followers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := []*models.Follower{}
	for rows.Next() {
		var edge models.Follower
		if err := rows.Scan(&edge.ID, &edge.FollowerID, &edge.FollowingID); err != nil {
			return nil, err
		}
		edges = append(edges, &edge)
	}
	return edges, rows.Err()
}
