package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/repository"
	"github.com/storytelling-api/internal/validation"
	"github.com/storytelling-api/pkg/errorx"
)

const (
	maxBioLength      = 500
	maxLocationLength = 100
)

// userService is the concrete implementation of UserService
type userService struct {
	users repository.UserRepository
	log   zerolog.Logger
}

func newUserService(repos *repository.Repositories, log zerolog.Logger) *userService {
	return &userService{
		users: repos.User,
		log:   log.With().Str("service", "user").Logger(),
	}
}

func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errorx.New(errorx.NotFound, "User not found")
	}
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to load user")
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, page models.Page) (*models.UserPage, error) {
	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to list users")
	}

	items := make([]models.PublicUser, len(users))
	for i, u := range users {
		items[i] = u.Public()
	}
	return &models.UserPage{Items: items, Page: page.Page, PerPage: page.PerPage, Total: total}, nil
}

// UpdateProfile applies the non-nil fields of req
func (s *userService) UpdateProfile(ctx context.Context, userID int64, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		name := trim(*req.DisplayName)
		if err := validation.Required("display_name", name); err != nil {
			return nil, err
		}
		if err := validation.MaxLength("display_name", name, models.MaxDisplayNameLength); err != nil {
			return nil, err
		}
		user.DisplayName = name
	}
	if req.Bio != nil {
		bio := trim(*req.Bio)
		if err := validation.MaxLength("bio", bio, maxBioLength); err != nil {
			return nil, err
		}
		user.Bio = bio
	}
	if req.Location != nil {
		location := trim(*req.Location)
		if err := validation.MaxLength("location", location, maxLocationLength); err != nil {
			return nil, err
		}
		user.Location = location
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errorx.New(errorx.Conflict, "Display name already taken")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorx.New(errorx.NotFound, "User not found")
		}
		return nil, unexpected(s.log, err, "Failed to update profile")
	}
	return user, nil
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
