// internal/domain/vigilante/entity.go
package vigilante

import (
	"context"
	"time"
)

// Vigilante is a security guard who performs the inspections.
type Vigilante struct {
	ID            int64     `json:"id" db:"id"`
	CondominiumID int64     `json:"condominium_id" db:"condominium_id"`
	UserID        *int64    `json:"user_id,omitempty" db:"user_id"`
	FullName      string    `json:"full_name" db:"full_name"`
	Registration  string    `json:"registration" db:"registration"`
	Phone         string    `json:"phone" db:"phone"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type CreateRequest struct {
	FullName     string `json:"full_name" binding:"required,max=255"`
	Registration string `json:"registration" binding:"required,max=50"`
	Phone        string `json:"phone" binding:"max=30"`

	// Optional login for the guard; both must be set together.
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=8"`
}

type UpdateRequest struct {
	FullName     *string `json:"full_name" binding:"omitempty,max=255"`
	Registration *string `json:"registration" binding:"omitempty,max=50"`
	Phone        *string `json:"phone" binding:"omitempty,max=30"`
	IsActive     *bool   `json:"is_active"`
}

type Repository interface {
	Create(ctx context.Context, v *Vigilante) error
	FindByID(ctx context.Context, id int64) (*Vigilante, error)
	FindByUserID(ctx context.Context, userID int64) (*Vigilante, error)
	Update(ctx context.Context, v *Vigilante) error
	Delete(ctx context.Context, id int64) error
	ListByCondominium(ctx context.Context, condominiumID int64, onlyActive bool) ([]Vigilante, error)
	ExistsByRegistration(ctx context.Context, condominiumID int64, registration string) (bool, error)
}
