// internal/repository/postgres/motorcycle_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"vigilance-service/internal/domain/motorcycle"
	xerrors "vigilance-service/internal/pkg/errors"
)

type MotorcycleRepository struct {
	db *pgxpool.Pool
}

func NewMotorcycleRepository(db *pgxpool.Pool) *MotorcycleRepository {
	return &MotorcycleRepository{db: db}
}

const motorcycleColumns = `id, condominium_id, plate, make, model, year, color, status, created_at, updated_at`

func scanMotorcycle(row interface{ Scan(dest ...any) error }, m *motorcycle.Motorcycle) error {
	return row.Scan(
		&m.ID, &m.CondominiumID, &m.Plate, &m.Make, &m.Model,
		&m.Year, &m.Color, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
}

func (r *MotorcycleRepository) Create(ctx context.Context, m *motorcycle.Motorcycle) error {
	query := `
		INSERT INTO motorcycles (condominium_id, plate, make, model, year, color, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	m.Plate = strings.ToUpper(strings.TrimSpace(m.Plate))
	if m.Status == "" {
		m.Status = motorcycle.StatusActive
	}

	err := r.db.QueryRow(ctx, query,
		m.CondominiumID, m.Plate, m.Make, m.Model, m.Year, m.Color, m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("plate %s: %w", m.Plate, xerrors.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to create motorcycle: %w", err)
	}
	return nil
}

func (r *MotorcycleRepository) FindByID(ctx context.Context, id int64) (*motorcycle.Motorcycle, error) {
	query := `SELECT ` + motorcycleColumns + ` FROM motorcycles WHERE id = $1`

	var m motorcycle.Motorcycle
	err := readRetry(ctx, func(ctx context.Context) error {
		return scanMotorcycle(r.db.QueryRow(ctx, query, id), &m)
	})
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find motorcycle: %w", err)
	}
	return &m, nil
}

func (r *MotorcycleRepository) Update(ctx context.Context, m *motorcycle.Motorcycle) error {
	query := `
		UPDATE motorcycles
		SET plate = $2, make = $3, model = $4, year = $5, color = $6, status = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	m.Plate = strings.ToUpper(strings.TrimSpace(m.Plate))
	err := r.db.QueryRow(ctx, query, m.ID, m.Plate, m.Make, m.Model, m.Year, m.Color, m.Status).Scan(&m.UpdatedAt)
	if isNoRows(err) {
		return xerrors.ErrNotFound
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("plate %s: %w", m.Plate, xerrors.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to update motorcycle: %w", err)
	}
	return nil
}

// Delete fails with ErrConflict while checklists still reference the motorcycle.
func (r *MotorcycleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM motorcycles WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("motorcycle %d has checklists: %w", id, xerrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to delete motorcycle: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *MotorcycleRepository) ListByCondominium(ctx context.Context, condominiumID int64, status *motorcycle.Status) ([]motorcycle.Motorcycle, error) {
	query := `SELECT ` + motorcycleColumns + ` FROM motorcycles WHERE condominium_id = $1`
	args := []interface{}{condominiumID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY plate ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list motorcycles: %w", err)
	}
	defer rows.Close()

	list := []motorcycle.Motorcycle{}
	for rows.Next() {
		var m motorcycle.Motorcycle
		if err := scanMotorcycle(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan motorcycle: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *MotorcycleRepository) ExistsByPlate(ctx context.Context, condominiumID int64, plate string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM motorcycles WHERE condominium_id = $1 AND plate = UPPER($2))`,
		condominiumID, strings.TrimSpace(plate),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check plate: %w", err)
	}
	return exists, nil
}
