package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/repository"
	"github.com/storytelling-api/pkg/errorx"
)

// followService is the concrete implementation of FollowService
type followService struct {
	users     repository.UserRepository
	followers repository.FollowerRepository
	log       zerolog.Logger
}

func newFollowService(repos *repository.Repositories, log zerolog.Logger) *followService {
	return &followService{
		users:     repos.User,
		followers: repos.Follower,
		log:       log.With().Str("service", "follow").Logger(),
	}
}

// Follow adds an edge from followerID to followingID. Following the same user
// twice creates a second edge.
func (s *followService) Follow(ctx context.Context, followerID, followingID int64) (*models.Follower, error) {
	if followingID <= 0 || followingID == followerID {
		return nil, errorx.New(errorx.InvalidFollow, "following_id must be another user")
	}

	exists, err := s.users.Exists(ctx, followingID)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to check user")
	}
	if !exists {
		return nil, errorx.New(errorx.NotFound, "User not found")
	}

	edge := &models.Follower{FollowerID: followerID, FollowingID: followingID}
	if err := s.followers.Create(ctx, edge); err != nil {
		return nil, unexpected(s.log, err, "Failed to create follow")
	}
	return edge, nil
}

// Unfollow removes one edge between the pair, the most recent one
func (s *followService) Unfollow(ctx context.Context, followerID, followingID int64) error {
	if followingID <= 0 {
		return errorx.New(errorx.MissingFields, "Missing fields: following_id")
	}

	err := s.followers.DeleteNewest(ctx, followerID, followingID)
	if errors.Is(err, repository.ErrNotFound) {
		return errorx.New(errorx.NotFound, "Not following this user")
	}
	if err != nil {
		return unexpected(s.log, err, "Failed to delete follow")
	}
	return nil
}

func (s *followService) List(ctx context.Context, filter models.FollowFilter) ([]*models.Follower, error) {
	edges, err := s.followers.List(ctx, filter, models.MaxFollowList)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to list follows")
	}
	return edges, nil
}
