// internal/repository/postgres/vigilante_repo.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"vigilance-service/internal/domain/vigilante"
	xerrors "vigilance-service/internal/pkg/errors"
)

type VigilanteRepository struct {
	db *pgxpool.Pool
}

func NewVigilanteRepository(db *pgxpool.Pool) *VigilanteRepository {
	return &VigilanteRepository{db: db}
}

const vigilanteColumns = `id, condominium_id, user_id, full_name, registration, phone, is_active, created_at, updated_at`

func scanVigilante(row interface{ Scan(dest ...any) error }, v *vigilante.Vigilante) error {
	return row.Scan(
		&v.ID, &v.CondominiumID, &v.UserID, &v.FullName, &v.Registration,
		&v.Phone, &v.IsActive, &v.CreatedAt, &v.UpdatedAt,
	)
}

func (r *VigilanteRepository) Create(ctx context.Context, v *vigilante.Vigilante) error {
	query := `
		INSERT INTO vigilantes (condominium_id, user_id, full_name, registration, phone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		v.CondominiumID, v.UserID, v.FullName, v.Registration, v.Phone, v.IsActive,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("registration %s: %w", v.Registration, xerrors.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to create vigilante: %w", err)
	}
	return nil
}

func (r *VigilanteRepository) FindByID(ctx context.Context, id int64) (*vigilante.Vigilante, error) {
	return r.findOne(ctx, `SELECT `+vigilanteColumns+` FROM vigilantes WHERE id = $1`, id)
}

func (r *VigilanteRepository) FindByUserID(ctx context.Context, userID int64) (*vigilante.Vigilante, error) {
	return r.findOne(ctx, `SELECT `+vigilanteColumns+` FROM vigilantes WHERE user_id = $1`, userID)
}

func (r *VigilanteRepository) findOne(ctx context.Context, query string, arg int64) (*vigilante.Vigilante, error) {
	var v vigilante.Vigilante
	err := readRetry(ctx, func(ctx context.Context) error {
		return scanVigilante(r.db.QueryRow(ctx, query, arg), &v)
	})
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find vigilante: %w", err)
	}
	return &v, nil
}

func (r *VigilanteRepository) Update(ctx context.Context, v *vigilante.Vigilante) error {
	query := `
		UPDATE vigilantes
		SET full_name = $2, registration = $3, phone = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, v.ID, v.FullName, v.Registration, v.Phone, v.IsActive).Scan(&v.UpdatedAt)
	if isNoRows(err) {
		return xerrors.ErrNotFound
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("registration %s: %w", v.Registration, xerrors.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to update vigilante: %w", err)
	}
	return nil
}

// Delete fails with ErrConflict while checklists still reference the guard.
func (r *VigilanteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM vigilantes WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("vigilante %d has checklists: %w", id, xerrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to delete vigilante: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *VigilanteRepository) ListByCondominium(ctx context.Context, condominiumID int64, onlyActive bool) ([]vigilante.Vigilante, error) {
	query := `SELECT ` + vigilanteColumns + ` FROM vigilantes WHERE condominium_id = $1`
	if onlyActive {
		query += ` AND is_active`
	}
	query += ` ORDER BY full_name ASC, id ASC`

	rows, err := r.db.Query(ctx, query, condominiumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vigilantes: %w", err)
	}
	defer rows.Close()

	list := []vigilante.Vigilante{}
	for rows.Next() {
		var v vigilante.Vigilante
		if err := scanVigilante(rows, &v); err != nil {
			return nil, fmt.Errorf("failed to scan vigilante: %w", err)
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

func (r *VigilanteRepository) ExistsByRegistration(ctx context.Context, condominiumID int64, registration string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM vigilantes WHERE condominium_id = $1 AND registration = $2)`,
		condominiumID, registration,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return exists, nil
}
