// internal/domain/checklist/repository.go
package checklist

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, c *Checklist) error
	FindByID(ctx context.Context, id int64) (*Checklist, error)

	// ListByCondominium returns full records, newest first.
	ListByCondominium(ctx context.Context, condominiumID int64) ([]Checklist, error)
	ListSummaries(ctx context.Context, condominiumID int64, filters *ListFilters) ([]Summary, int64, error)
	Stats(ctx context.Context, condominiumID int64) (*SetStats, error)

	// DeleteByCondominium removes the set only if it still matches expected.
	DeleteByCondominium(ctx context.Context, condominiumID int64, expected *SetStats) (int64, error)
	DeleteByIDs(ctx context.Context, condominiumID int64, ids []int64) (int64, error)

	// ReportRefs resolves the rows a report of the checklist depends on.
	ReportRefs(ctx context.Context, checklistID int64) (*ReportRefs, error)
}

// ReportRefs tells whether the guard and motorcycle of a checklist still
// exist and which operator logo applies to it.
type ReportRefs struct {
	ChecklistID     int64
	VigilanteFound  bool
	MotorcycleFound bool
	LogoURL         string
}

// DraftStore keeps one draft per user outside the relational store.
type DraftStore interface {
	Get(ctx context.Context, userID int64) (*Draft, error)
	// Mutate loads (or creates) the draft, applies fn and saves it atomically.
	Mutate(ctx context.Context, userID int64, fn func(d *Draft) error) (*Draft, error)
	Delete(ctx context.Context, userID int64) error
}

type ListFilters struct {
	Type        InspectionType `form:"type"`
	VigilanteID *int64         `form:"vigilante_id"`
	From        *time.Time     `form:"from" time_format:"2006-01-02"`
	To          *time.Time     `form:"to" time_format:"2006-01-02"`
	Page        int            `form:"page"`
	PageSize    int            `form:"page_size"`
}
