// internal/repository/postgres/checklist_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"vigilance-service/internal/domain/checklist"
	xerrors "vigilance-service/internal/pkg/errors"
)

type ChecklistRepository struct {
	db        *pgxpool.Pool
	dbWrapper *DB
}

func NewChecklistRepository(db *pgxpool.Pool) *ChecklistRepository {
	return &ChecklistRepository{db: db, dbWrapper: NewDB(db)}
}

const checklistColumns = `
	id, condominium_id, vigilante_id, vigilante_name, motorcycle_id, motorcycle_plate,
	inspection_type, components, face_photo, vehicle_photos, fuel_photos, odometer_photos,
	odometer_reading, fuel_level, general_observations, damages, signature,
	status, COALESCE(created_by, 0), created_at`

func scanChecklist(row interface{ Scan(dest ...any) error }, c *checklist.Checklist) error {
	var componentsJSON, faceJSON, vehicleJSON, fuelJSON, odometerJSON []byte

	err := row.Scan(
		&c.ID, &c.CondominiumID, &c.VigilanteID, &c.VigilanteName, &c.MotorcycleID, &c.MotorcyclePlate,
		&c.Type, &componentsJSON, &faceJSON, &vehicleJSON, &fuelJSON, &odometerJSON,
		&c.OdometerReading, &c.FuelLevel, &c.GeneralObservations, &c.Damages, &c.Signature,
		&c.Status, &c.CreatedBy, &c.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(componentsJSON, &c.Components); err != nil {
		return fmt.Errorf("failed to unmarshal components: %w", err)
	}
	if len(faceJSON) > 0 && string(faceJSON) != "null" {
		var face checklist.Photo
		if err := json.Unmarshal(faceJSON, &face); err != nil {
			return fmt.Errorf("failed to unmarshal face photo: %w", err)
		}
		c.FacePhoto = &face
	}
	for _, p := range []struct {
		raw  []byte
		dest *[]checklist.Photo
	}{
		{vehicleJSON, &c.VehiclePhotos},
		{fuelJSON, &c.FuelPhotos},
		{odometerJSON, &c.OdometerPhotos},
	} {
		*p.dest = []checklist.Photo{}
		if err := json.Unmarshal(p.raw, p.dest); err != nil {
			return fmt.Errorf("failed to unmarshal photos: %w", err)
		}
	}
	return nil
}

func marshalPhotos(photos []checklist.Photo) ([]byte, error) {
	if photos == nil {
		photos = []checklist.Photo{}
	}
	return json.Marshal(photos)
}

// Create inserts the record. Guard name and plate are resolved inside the
// same statement so the cached columns match the referenced rows.
func (r *ChecklistRepository) Create(ctx context.Context, c *checklist.Checklist) error {
	if c.VigilanteID <= 0 || c.MotorcycleID <= 0 || strings.TrimSpace(c.Signature) == "" {
		return fmt.Errorf("checklist requires vigilante, motorcycle and signature: %w", xerrors.ErrInvalidInput)
	}

	components := c.Components
	if components == nil {
		components = map[checklist.ComponentKey]checklist.Component{}
	}
	componentsJSON, err := json.Marshal(components)
	if err != nil {
		return fmt.Errorf("failed to marshal components: %w", err)
	}

	var faceJSON []byte
	if c.FacePhoto != nil {
		if faceJSON, err = json.Marshal(c.FacePhoto); err != nil {
			return fmt.Errorf("failed to marshal face photo: %w", err)
		}
	}
	vehicleJSON, err := marshalPhotos(c.VehiclePhotos)
	if err != nil {
		return fmt.Errorf("failed to marshal vehicle photos: %w", err)
	}
	fuelJSON, err := marshalPhotos(c.FuelPhotos)
	if err != nil {
		return fmt.Errorf("failed to marshal fuel photos: %w", err)
	}
	odometerJSON, err := marshalPhotos(c.OdometerPhotos)
	if err != nil {
		return fmt.Errorf("failed to marshal odometer photos: %w", err)
	}

	if c.Status == "" {
		c.Status = checklist.RecordCompleted
	}

	var createdBy *int64
	if c.CreatedBy > 0 {
		createdBy = &c.CreatedBy
	}

	query := `
		INSERT INTO checklists (
			condominium_id, vigilante_id, vigilante_name, motorcycle_id, motorcycle_plate,
			inspection_type, components, face_photo, vehicle_photos, fuel_photos, odometer_photos,
			odometer_reading, fuel_level, general_observations, damages, signature, status, created_by
		)
		SELECT v.condominium_id, v.id, v.full_name, m.id, m.plate,
		       $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		FROM vigilantes v
		JOIN motorcycles m ON m.id = $2 AND m.condominium_id = v.condominium_id
		WHERE v.id = $1
		RETURNING id, condominium_id, vigilante_name, motorcycle_plate, created_at
	`

	err = r.db.QueryRow(ctx, query,
		c.VigilanteID, c.MotorcycleID,
		c.Type, componentsJSON, faceJSON, vehicleJSON, fuelJSON, odometerJSON,
		c.OdometerReading, c.FuelLevel, c.GeneralObservations, c.Damages, c.Signature,
		c.Status, createdBy,
	).Scan(&c.ID, &c.CondominiumID, &c.VigilanteName, &c.MotorcyclePlate, &c.CreatedAt)
	if isNoRows(err) {
		return fmt.Errorf("vigilante %d and motorcycle %d are not in the same condominium: %w",
			c.VigilanteID, c.MotorcycleID, xerrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to create checklist: %w", err)
	}
	return nil
}

func (r *ChecklistRepository) FindByID(ctx context.Context, id int64) (*checklist.Checklist, error) {
	query := `SELECT ` + checklistColumns + ` FROM checklists WHERE id = $1`

	var c checklist.Checklist
	err := readRetry(ctx, func(ctx context.Context) error {
		return scanChecklist(r.db.QueryRow(ctx, query, id), &c)
	})
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find checklist: %w", err)
	}
	return &c, nil
}

func (r *ChecklistRepository) ListByCondominium(ctx context.Context, condominiumID int64) ([]checklist.Checklist, error) {
	query := `SELECT ` + checklistColumns + `
		FROM checklists
		WHERE condominium_id = $1
		ORDER BY created_at DESC, id DESC`

	var list []checklist.Checklist
	err := readRetry(ctx, func(ctx context.Context) error {
		list = list[:0]
		rows, err := r.db.Query(ctx, query, condominiumID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c checklist.Checklist
			if err := scanChecklist(rows, &c); err != nil {
				return err
			}
			list = append(list, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list checklists: %w", err)
	}
	if list == nil {
		list = []checklist.Checklist{}
	}
	return list, nil
}

func (r *ChecklistRepository) ListSummaries(ctx context.Context, condominiumID int64, filters *checklist.ListFilters) ([]checklist.Summary, int64, error) {
	conditions := []string{"condominium_id = $1"}
	args := []interface{}{condominiumID}
	argPos := 2

	if filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("inspection_type = $%d", argPos))
		args = append(args, filters.Type)
		argPos++
	}

	if filters.VigilanteID != nil {
		conditions = append(conditions, fmt.Sprintf("vigilante_id = $%d", argPos))
		args = append(args, *filters.VigilanteID)
		argPos++
	}

	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *filters.From)
		argPos++
	}

	if filters.To != nil {
		// inclusive of the whole "to" day
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", argPos))
		args = append(args, filters.To.Add(24*time.Hour))
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM checklists WHERE %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count checklists: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT id, condominium_id, vigilante_id, vigilante_name, motorcycle_id, motorcycle_plate,
		       inspection_type, fuel_level, status, created_at
		FROM checklists
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list checklists: %w", err)
	}
	defer rows.Close()

	summaries := []checklist.Summary{}
	for rows.Next() {
		var s checklist.Summary
		if err := rows.Scan(
			&s.ID, &s.CondominiumID, &s.VigilanteID, &s.VigilanteName, &s.MotorcycleID, &s.MotorcyclePlate,
			&s.Type, &s.FuelLevel, &s.Status, &s.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan checklist summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, total, rows.Err()
}

func (r *ChecklistRepository) Stats(ctx context.Context, condominiumID int64) (*checklist.SetStats, error) {
	stats := &checklist.SetStats{}
	err := readRetry(ctx, func(ctx context.Context) error {
		return r.db.QueryRow(ctx,
			`SELECT COUNT(*), MAX(created_at) FROM checklists WHERE condominium_id = $1`,
			condominiumID,
		).Scan(&stats.Count, &stats.LatestAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist stats: %w", err)
	}
	return stats, nil
}

// DeleteByCondominium locks the condominium's checklists, compares the locked
// set with expected and deletes exactly those rows. A mismatch returns
// ErrConflict and deletes nothing.
func (r *ChecklistRepository) DeleteByCondominium(ctx context.Context, condominiumID int64, expected *checklist.SetStats) (int64, error) {
	tx, err := r.dbWrapper.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT id, created_at FROM checklists WHERE condominium_id = $1 FOR UPDATE`,
		condominiumID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to lock checklists: %w", err)
	}

	ids := []int64{}
	var latest *time.Time
	for rows.Next() {
		var id int64
		var createdAt time.Time
		if err := rows.Scan(&id, &createdAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan checklist id: %w", err)
		}
		ids = append(ids, id)
		if latest == nil || createdAt.After(*latest) {
			t := createdAt
			latest = &t
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to lock checklists: %w", err)
	}

	if expected != nil && !sameStats(expected, int64(len(ids)), latest) {
		return 0, fmt.Errorf("checklist set changed since preview: %w", xerrors.ErrConflict)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := tx.Exec(ctx,
		`DELETE FROM checklists WHERE condominium_id = $1 AND id = ANY($2)`,
		condominiumID, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete checklists: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result.RowsAffected(), nil
}

func sameStats(expected *checklist.SetStats, count int64, latest *time.Time) bool {
	if expected.Count != count {
		return false
	}
	if expected.LatestAt == nil || latest == nil {
		return expected.LatestAt == nil && latest == nil
	}
	return expected.LatestAt.Equal(*latest)
}

// DeleteByIDs deletes only the listed checklists of the condominium.
func (r *ChecklistRepository) DeleteByIDs(ctx context.Context, condominiumID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.Exec(ctx,
		`DELETE FROM checklists WHERE condominium_id = $1 AND id = ANY($2)`,
		condominiumID, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete checklists: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *ChecklistRepository) ReportRefs(ctx context.Context, checklistID int64) (*checklist.ReportRefs, error) {
	query := `
		SELECT c.id, v.id IS NOT NULL, m.id IS NOT NULL, COALESCE(u.logo_url, '')
		FROM checklists c
		LEFT JOIN vigilantes v ON v.id = c.vigilante_id
		LEFT JOIN motorcycles m ON m.id = c.motorcycle_id
		LEFT JOIN condominiums co ON co.id = COALESCE(v.condominium_id, c.condominium_id)
		LEFT JOIN users u ON u.id = co.owner_id
		WHERE c.id = $1
	`

	refs := &checklist.ReportRefs{}
	err := readRetry(ctx, func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, checklistID).Scan(
			&refs.ChecklistID, &refs.VigilanteFound, &refs.MotorcycleFound, &refs.LogoURL,
		)
	})
	if isNoRows(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report references: %w", err)
	}
	return refs, nil
}
