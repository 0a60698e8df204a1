package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"vigilance-service/internal/domain/checklist"
	xerrors "vigilance-service/internal/pkg/errors"
)

// ChecklistRepository counts calls and can be told to fail so services can
// be tested against store failures.
type ChecklistRepository struct {
	s *Store

	CreateCalls int
	DeleteCalls int
	CreateErr   error
	DeleteErr   error

	// OnDelete runs before every delete with the ids about to be removed.
	// It is called with the store locked and must not call back into it.
	OnDelete func(ids []int64)
}

func (r *ChecklistRepository) Create(_ context.Context, c *checklist.Checklist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.CreateCalls++
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if c.VigilanteID <= 0 || c.MotorcycleID <= 0 || strings.TrimSpace(c.Signature) == "" {
		return fmt.Errorf("checklist requires vigilante, motorcycle and signature: %w", xerrors.ErrInvalidInput)
	}

	v, ok := r.s.vigilantes[c.VigilanteID]
	if !ok {
		return xerrors.ErrNotFound
	}
	m, ok := r.s.motorcycles[c.MotorcycleID]
	if !ok || m.CondominiumID != v.CondominiumID {
		return xerrors.ErrNotFound
	}

	c.ID = r.s.id()
	c.CondominiumID = v.CondominiumID
	c.VigilanteName = v.FullName
	c.MotorcyclePlate = m.Plate
	if c.Status == "" {
		c.Status = checklist.RecordCompleted
	}
	c.CreatedAt = r.s.now()
	r.s.checklists[c.ID] = *c
	return nil
}

// Put stores c as is, keeping its ID and CreatedAt. Test fixtures only.
func (r *ChecklistRepository) Put(c checklist.Checklist) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == 0 {
		c.ID = r.s.id()
	} else if c.ID > r.s.nextID {
		r.s.nextID = c.ID
	}
	r.s.checklists[c.ID] = c
}

func (r *ChecklistRepository) FindByID(_ context.Context, id int64) (*checklist.Checklist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.checklists[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &c, nil
}

func (r *ChecklistRepository) byCondominium(condominiumID int64) []checklist.Checklist {
	list := []checklist.Checklist{}
	for _, c := range r.s.checklists {
		if c.CondominiumID == condominiumID {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list
}

func (r *ChecklistRepository) ListByCondominium(_ context.Context, condominiumID int64) ([]checklist.Checklist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.byCondominium(condominiumID), nil
}

func (r *ChecklistRepository) ListSummaries(_ context.Context, condominiumID int64, filters *checklist.ListFilters) ([]checklist.Summary, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []checklist.Summary
	for _, c := range r.byCondominium(condominiumID) {
		if filters.Type != "" && c.Type != filters.Type {
			continue
		}
		if filters.VigilanteID != nil && c.VigilanteID != *filters.VigilanteID {
			continue
		}
		if filters.From != nil && c.CreatedAt.Before(*filters.From) {
			continue
		}
		if filters.To != nil && !c.CreatedAt.Before(filters.To.Add(24*time.Hour)) {
			continue
		}
		matched = append(matched, checklist.Summary{
			ID:              c.ID,
			CondominiumID:   c.CondominiumID,
			VigilanteID:     c.VigilanteID,
			VigilanteName:   c.VigilanteName,
			MotorcycleID:    c.MotorcycleID,
			MotorcyclePlate: c.MotorcyclePlate,
			Type:            c.Type,
			FuelLevel:       c.FuelLevel,
			Status:          c.Status,
			CreatedAt:       c.CreatedAt,
		})
	}

	start, end := page(len(matched), filters.Page, filters.PageSize)
	return append([]checklist.Summary{}, matched[start:end]...), int64(len(matched)), nil
}

func (r *ChecklistRepository) stats(condominiumID int64) *checklist.SetStats {
	stats := &checklist.SetStats{}
	for _, c := range r.s.checklists {
		if c.CondominiumID != condominiumID {
			continue
		}
		stats.Count++
		if stats.LatestAt == nil || c.CreatedAt.After(*stats.LatestAt) {
			t := c.CreatedAt
			stats.LatestAt = &t
		}
	}
	return stats
}

func (r *ChecklistRepository) Stats(_ context.Context, condominiumID int64) (*checklist.SetStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.stats(condominiumID), nil
}

func (r *ChecklistRepository) DeleteByCondominium(_ context.Context, condominiumID int64, expected *checklist.SetStats) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.DeleteCalls++
	if r.DeleteErr != nil {
		return 0, r.DeleteErr
	}

	current := r.stats(condominiumID)
	if expected != nil {
		same := expected.Count == current.Count
		if same && (expected.LatestAt == nil || current.LatestAt == nil) {
			same = expected.LatestAt == nil && current.LatestAt == nil
		} else if same {
			same = expected.LatestAt.Equal(*current.LatestAt)
		}
		if !same {
			return 0, fmt.Errorf("checklist set changed since preview: %w", xerrors.ErrConflict)
		}
	}

	var ids []int64
	for _, c := range r.byCondominium(condominiumID) {
		ids = append(ids, c.ID)
	}
	return r.remove(condominiumID, ids), nil
}

func (r *ChecklistRepository) DeleteByIDs(_ context.Context, condominiumID int64, ids []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.DeleteCalls++
	if r.DeleteErr != nil {
		return 0, r.DeleteErr
	}
	return r.remove(condominiumID, ids), nil
}

func (r *ChecklistRepository) remove(condominiumID int64, ids []int64) int64 {
	if r.OnDelete != nil {
		r.OnDelete(append([]int64{}, ids...))
	}
	var n int64
	for _, id := range ids {
		if c, ok := r.s.checklists[id]; ok && c.CondominiumID == condominiumID {
			delete(r.s.checklists, id)
			n++
		}
	}
	return n
}

func (r *ChecklistRepository) ReportRefs(_ context.Context, checklistID int64) (*checklist.ReportRefs, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.checklists[checklistID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}

	refs := &checklist.ReportRefs{ChecklistID: c.ID}
	condoID := c.CondominiumID
	if v, ok := r.s.vigilantes[c.VigilanteID]; ok {
		refs.VigilanteFound = true
		condoID = v.CondominiumID
	}
	_, refs.MotorcycleFound = r.s.motorcycles[c.MotorcycleID]

	if condo, ok := r.s.condominiums[condoID]; ok {
		if owner, ok := r.s.users[condo.OwnerID]; ok {
			refs.LogoURL = owner.LogoURL.String
		}
	}
	return refs, nil
}
