// internal/domain/motorcycle/entity.go
package motorcycle

import (
	"context"
	"time"
)

type Status string

const (
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
	StatusInactive    Status = "inactive"
)

// Motorcycle is a patrol vehicle of a condominium fleet.
type Motorcycle struct {
	ID            int64     `json:"id" db:"id"`
	CondominiumID int64     `json:"condominium_id" db:"condominium_id"`
	Plate         string    `json:"plate" db:"plate"`
	Make          string    `json:"make" db:"make"`
	Model         string    `json:"model" db:"model"`
	Year          int       `json:"year" db:"year"`
	Color         string    `json:"color" db:"color"`
	Status        Status    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type CreateRequest struct {
	Plate string `json:"plate" binding:"required,max=10"`
	Make  string `json:"make" binding:"required,max=100"`
	Model string `json:"model" binding:"required,max=100"`
	Year  int    `json:"year" binding:"omitempty,min=1950,max=2100"`
	Color string `json:"color" binding:"max=50"`
}

type UpdateRequest struct {
	Plate  *string `json:"plate" binding:"omitempty,max=10"`
	Make   *string `json:"make" binding:"omitempty,max=100"`
	Model  *string `json:"model" binding:"omitempty,max=100"`
	Year   *int    `json:"year" binding:"omitempty,min=1950,max=2100"`
	Color  *string `json:"color" binding:"omitempty,max=50"`
	Status *Status `json:"status" binding:"omitempty,oneof=active maintenance inactive"`
}

type Repository interface {
	Create(ctx context.Context, m *Motorcycle) error
	FindByID(ctx context.Context, id int64) (*Motorcycle, error)
	Update(ctx context.Context, m *Motorcycle) error
	Delete(ctx context.Context, id int64) error
	ListByCondominium(ctx context.Context, condominiumID int64, status *Status) ([]Motorcycle, error)
	ExistsByPlate(ctx context.Context, condominiumID int64, plate string) (bool, error)
}
