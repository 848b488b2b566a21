package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Role is the platform-wide role of a user.
type Role string

const (
	RoleReader Role = "READER"
	RoleWriter Role = "WRITER"
	RoleAdmin  Role = "ADMIN"
)

// ValidRoles defines allowed user roles
var ValidRoles = map[Role]bool{
	RoleReader: true,
	RoleWriter: true,
	RoleAdmin:  true,
}

// ParseRole accepts any casing.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !ValidRoles[r] {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

func (r Role) Value() (driver.Value, error) {
	if !ValidRoles[r] {
		return nil, fmt.Errorf("unknown role %q", string(r))
	}
	return strings.ToLower(string(r)), nil
}

func (r *Role) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User represents a registered account
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"user_role"`
	Active      bool      `json:"is_active"`
	Bio         string    `json:"bio"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PublicUser is the profile shape shown to other users.
type PublicUser struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"user_role"`
	Bio         string    `json:"bio"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Bio:         u.Bio,
		Location:    u.Location,
		CreatedAt:   u.CreatedAt,
	}
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"user_role"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /api/auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by a successful login
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// UpdateProfileRequest is the body of PATCH /api/user/me. Nil fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
}

// UserPage is a paginated user listing
type UserPage struct {
	Items   []PublicUser `json:"items"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
	Total   int          `json:"total"`
}

// MaxDisplayNameLength bounds display names
const MaxDisplayNameLength = 100

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8
