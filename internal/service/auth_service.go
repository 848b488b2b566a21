package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/repository"
	"github.com/storytelling-api/internal/token"
	"github.com/storytelling-api/internal/validation"
	"github.com/storytelling-api/pkg/auth"
	"github.com/storytelling-api/pkg/errorx"
)

// authService is the concrete implementation of AuthService
type authService struct {
	users  repository.UserRepository
	tokens *token.Manager
	hasher *auth.Hasher
	log    zerolog.Logger
}

func newAuthService(repos *repository.Repositories, tokens *token.Manager, hasher *auth.Hasher, log zerolog.Logger) *authService {
	return &authService{
		users:  repos.User,
		tokens: tokens,
		hasher: hasher,
		log:    log.With().Str("service", "auth").Logger(),
	}
}

// Register creates a READER or WRITER account. ADMIN cannot be self-assigned.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if err := validation.Required("email", req.Email, "password", req.Password, "display_name", req.DisplayName); err != nil {
		return nil, err
	}

	email := validation.NormalizeEmail(req.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(req.Password) < models.MinPasswordLength {
		return nil, errorx.New(errorx.BadRequest, "password must be at least %d characters", models.MinPasswordLength)
	}
	displayName := trim(req.DisplayName)
	if err := validation.MaxLength("display_name", displayName, models.MaxDisplayNameLength); err != nil {
		return nil, err
	}

	role := models.RoleReader
	if trim(req.Role) != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil || parsed == models.RoleAdmin {
			return nil, errorx.New(errorx.InvalidRole, "user_role must be READER or WRITER")
		}
		role = parsed
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to hash password")
	}

	user := &models.User{
		Email:       email,
		Password:    hash,
		DisplayName: displayName,
		Role:        role,
		Active:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errorx.New(errorx.Conflict, "Email or display name already registered")
		}
		return nil, unexpected(s.log, err, "Failed to create user")
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a token pair
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if err := validation.Required("email", req.Email, "password", req.Password); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errorx.New(errorx.InvalidCredentials, "Invalid email or password")
	}
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to load user")
	}

	if err := s.hasher.Check(user.Password, req.Password); err != nil {
		if !errors.Is(err, auth.ErrMismatch) {
			s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("Stored password hash is unreadable")
		}
		return nil, errorx.New(errorx.InvalidCredentials, "Invalid email or password")
	}
	if !user.Active {
		return nil, errorx.New(errorx.Forbidden, "Account is disabled")
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to issue tokens")
	}

	return &models.AuthResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: user}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair is issued
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	if err := validation.Required("refresh_token", refreshToken); err != nil {
		return nil, err
	}

	claims, err := s.parse(ctx, refreshToken, s.tokens.ParseRefresh)
	if err != nil {
		return nil, err
	}
	user, err := s.activeUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	// consuming the token is the atomic step; a concurrent replay loses here
	if err := s.revoke(ctx, claims, "Failed to revoke refresh token"); err != nil {
		return nil, err
	}
	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to issue tokens")
	}
	return &models.AuthResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Logout revokes the presented access token
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.parse(ctx, accessToken, s.tokens.ParseAccess)
	if err != nil {
		return err
	}
	return s.revoke(ctx, claims, "Failed to revoke access token")
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.parse(ctx, accessToken, s.tokens.ParseAccess)
	if err != nil {
		return nil, err
	}
	return s.activeUser(ctx, claims)
}

func (s *authService) parse(ctx context.Context, raw string, parse func(context.Context, string) (*token.Claims, error)) (*token.Claims, error) {
	claims, err := parse(ctx, raw)
	if errors.Is(err, token.ErrInvalid) || errors.Is(err, token.ErrRevoked) {
		return nil, errorx.New(errorx.Unauthorized, "Invalid or expired token")
	}
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to verify token")
	}
	return claims, nil
}

func (s *authService) revoke(ctx context.Context, claims *token.Claims, msg string) error {
	err := s.tokens.Revoke(ctx, claims)
	if errors.Is(err, token.ErrInvalid) || errors.Is(err, token.ErrRevoked) {
		return errorx.New(errorx.Unauthorized, "Invalid or expired token")
	}
	if err != nil {
		return unexpected(s.log, err, msg)
	}
	return nil
}

func (s *authService) activeUser(ctx context.Context, claims *token.Claims) (*models.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, errorx.New(errorx.Unauthorized, "Invalid or expired token")
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errorx.New(errorx.Unauthorized, "Account no longer exists")
	}
	if err != nil {
		return nil, unexpected(s.log, err, "Failed to load user")
	}
	if !user.Active {
		return nil, errorx.New(errorx.Unauthorized, "Account is disabled")
	}
	return user, nil
}
