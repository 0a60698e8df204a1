// internal/repository/postgres/condominium_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"vigilance-service/internal/domain/condominium"
	xerrors "vigilance-service/internal/pkg/errors"
)

type CondominiumRepository struct {
	db *pgxpool.Pool
}

func NewCondominiumRepository(db *pgxpool.Pool) *CondominiumRepository {
	return &CondominiumRepository{db: db}
}

const condominiumColumns = `id, owner_id, name, address, contact_name, contact_phone, contact_email, is_active, created_at, updated_at`

func scanCondominium(row interface{ Scan(dest ...any) error }, c *condominium.Condominium) error {
	return row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.Address, &c.ContactName,
		&c.ContactPhone, &c.ContactEmail, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (r *CondominiumRepository) Create(ctx context.Context, c *condominium.Condominium) error {
	query := `
		INSERT INTO condominiums (owner_id, name, address, contact_name, contact_phone, contact_email, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		c.OwnerID, c.Name, c.Address, c.ContactName, c.ContactPhone, c.ContactEmail, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create condominium: %w", err)
	}
	return nil
}

func (r *CondominiumRepository) FindByID(ctx context.Context, id int64) (*condominium.Condominium, error) {
	query := `SELECT ` + condominiumColumns + ` FROM condominiums WHERE id = $1`

	var c condominium.Condominium
	err := readRetry(ctx, func(ctx context.Context) error {
		return scanCondominium(r.db.QueryRow(ctx, query, id), &c)
	})
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find condominium: %w", err)
	}
	return &c, nil
}

func (r *CondominiumRepository) Update(ctx context.Context, c *condominium.Condominium) error {
	query := `
		UPDATE condominiums
		SET name = $2, address = $3, contact_name = $4, contact_phone = $5,
		    contact_email = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.Name, c.Address, c.ContactName, c.ContactPhone, c.ContactEmail, c.IsActive,
	).Scan(&c.UpdatedAt)
	if isNoRows(err) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update condominium: %w", err)
	}
	return nil
}

// Delete removes the condominium with its guards, motorcycles and checklists.
func (r *CondominiumRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM condominiums WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete condominium: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ListByOwner lists condominiums of ownerID, or all of them when ownerID is 0.
func (r *CondominiumRepository) ListByOwner(ctx context.Context, ownerID int64, filters *condominium.ListFilters) ([]condominium.Condominium, int64, error) {
	conditions := []string{"1 = 1"}
	args := []interface{}{}
	argPos := 1

	if ownerID > 0 {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argPos))
		args = append(args, ownerID)
		argPos++
	}

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM condominiums WHERE %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count condominiums: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM condominiums
		WHERE %s
		ORDER BY name ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, condominiumColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list condominiums: %w", err)
	}
	defer rows.Close()

	condos := []condominium.Condominium{}
	for rows.Next() {
		var c condominium.Condominium
		if err := scanCondominium(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("failed to scan condominium: %w", err)
		}
		condos = append(condos, c)
	}

	return condos, total, rows.Err()
}
