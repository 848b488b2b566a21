// Package token issues and verifies the HS256 access and refresh tokens used by the API.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrRevoked = errors.New("token revoked")
)

// Claims carries the user id in Subject and the token kind in Type
type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the subject back into a user id
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalid
	}
	return id, nil
}

// Options configures a Manager
type Options struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Pair is an access token with its refresh token
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Manager signs and verifies tokens and consults the revoker
type Manager struct {
	opts    Options
	revoker Revoker
	now     func() time.Time
}

func NewManager(opts Options, revoker Revoker) *Manager {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Manager{opts: opts, revoker: revoker, now: time.Now}
}

// IssuePair creates a fresh access and refresh token for userID
func (m *Manager) IssuePair(userID int64) (Pair, error) {
	access, err := m.issue(userID, TypeAccess, m.opts.AccessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.issue(userID, TypeRefresh, m.opts.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) issue(userID int64, typ string, ttl time.Duration) (string, error) {
	jti, err := randomID()
	if err != nil {
		return "", err
	}
	now := m.now().UTC()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.opts.Secret)
}

// ParseAccess verifies an access token and returns its claims
func (m *Manager) ParseAccess(ctx context.Context, raw string) (*Claims, error) {
	return m.parse(ctx, raw, TypeAccess)
}

// ParseRefresh verifies a refresh token and returns its claims
func (m *Manager) ParseRefresh(ctx context.Context, raw string) (*Claims, error) {
	return m.parse(ctx, raw, TypeRefresh)
}

func (m *Manager) parse(ctx context.Context, raw, typ string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return m.opts.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.opts.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.Type != typ || claims.ID == "" {
		return nil, ErrInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}

	revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke invalidates the token described by claims until it expires. It
// returns ErrRevoked when another caller revoked the token first, which makes
// it usable as a one-time consume step for refresh rotation.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	if claims.ExpiresAt == nil {
		return ErrInvalid
	}
	ok, err := m.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time.Sub(m.now()))
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if !ok {
		return ErrRevoked
	}
	return nil
}

func randomID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
