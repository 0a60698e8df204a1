// internal/domain/auth/entity.go
package auth

import (
	"context"
	"database/sql"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleVigilante Role = "vigilante"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is an account that can sign in.
type User struct {
	ID           int64          `json:"id" db:"id"`
	Email        string         `json:"email" db:"email"`
	PasswordHash string         `json:"-" db:"password_hash"`
	FullName     string         `json:"full_name" db:"full_name"`
	Role         Role           `json:"role" db:"role"`
	LogoURL      sql.NullString `json:"-" db:"logo_url"`
	Status       string         `json:"status" db:"status"`
	LastLogin    sql.NullTime   `json:"-" db:"last_login"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID int64
	Email  string
	Role   Role
	JTI    string

	// Admin is true for admin accounts and for emails on the admin allow-list.
	Admin bool
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Admin
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	UpdateLogo(ctx context.Context, id int64, logoURL string) error
	CountByRole(ctx context.Context, role Role) (int64, error)
}
