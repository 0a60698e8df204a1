// internal/domain/condominium/entity.go
package condominium

import (
	"context"
	"time"
)

// Condominium is the tenant that owns guards, motorcycles and checklists.
type Condominium struct {
	ID           int64     `json:"id" db:"id"`
	OwnerID      int64     `json:"owner_id" db:"owner_id"`
	Name         string    `json:"name" db:"name"`
	Address      string    `json:"address" db:"address"`
	ContactName  string    `json:"contact_name" db:"contact_name"`
	ContactPhone string    `json:"contact_phone" db:"contact_phone"`
	ContactEmail string    `json:"contact_email" db:"contact_email"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type CreateRequest struct {
	Name         string `json:"name" binding:"required,max=255"`
	Address      string `json:"address" binding:"max=500"`
	ContactName  string `json:"contact_name" binding:"max=255"`
	ContactPhone string `json:"contact_phone" binding:"max=30"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email,max=255"`
}

type UpdateRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=255"`
	Address      *string `json:"address" binding:"omitempty,max=500"`
	ContactName  *string `json:"contact_name" binding:"omitempty,max=255"`
	ContactPhone *string `json:"contact_phone" binding:"omitempty,max=30"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email,max=255"`
	IsActive     *bool   `json:"is_active"`
}

type ListFilters struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type ListResponse struct {
	Condominiums []Condominium `json:"condominiums"`
	Total        int64         `json:"total"`
	Page         int           `json:"page"`
	PageSize     int           `json:"page_size"`
	TotalPages   int           `json:"total_pages"`
}

type Repository interface {
	Create(ctx context.Context, c *Condominium) error
	FindByID(ctx context.Context, id int64) (*Condominium, error)
	Update(ctx context.Context, c *Condominium) error
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64, filters *ListFilters) ([]Condominium, int64, error)
}
