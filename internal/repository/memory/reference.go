package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/condominium"
	"vigilance-service/internal/domain/motorcycle"
	"vigilance-service/internal/domain/vigilante"
	xerrors "vigilance-service/internal/pkg/errors"
)

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u *auth.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("email %s: %w", u.Email, xerrors.ErrDuplicateEntry)
		}
	}
	u.ID = r.s.id()
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*auth.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	u.LastLogin.Time, u.LastLogin.Valid = r.s.now(), true
	r.s.users[id] = u
	return nil
}

func (r *UserRepository) UpdateLogo(_ context.Context, id int64, logoURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	u.LogoURL.String, u.LogoURL.Valid = logoURL, logoURL != ""
	r.s.users[id] = u
	return nil
}

func (r *UserRepository) CountByRole(_ context.Context, role auth.Role) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type CondominiumRepository struct{ s *Store }

func (r *CondominiumRepository) Create(_ context.Context, c *condominium.Condominium) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.condominiums[c.ID] = *c
	return nil
}

func (r *CondominiumRepository) FindByID(_ context.Context, id int64) (*condominium.Condominium, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.condominiums[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &c, nil
}

func (r *CondominiumRepository) Update(_ context.Context, c *condominium.Condominium) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.condominiums[c.ID]; !ok {
		return xerrors.ErrNotFound
	}
	c.UpdatedAt = r.s.now()
	r.s.condominiums[c.ID] = *c
	return nil
}

// Delete cascades to the condominium's guards, motorcycles and checklists.
func (r *CondominiumRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.condominiums[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(r.s.condominiums, id)
	for vid, v := range r.s.vigilantes {
		if v.CondominiumID == id {
			delete(r.s.vigilantes, vid)
		}
	}
	for mid, m := range r.s.motorcycles {
		if m.CondominiumID == id {
			delete(r.s.motorcycles, mid)
		}
	}
	for cid, c := range r.s.checklists {
		if c.CondominiumID == id {
			delete(r.s.checklists, cid)
		}
	}
	return nil
}

func (r *CondominiumRepository) ListByOwner(_ context.Context, ownerID int64, filters *condominium.ListFilters) ([]condominium.Condominium, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var all []condominium.Condominium
	for _, id := range sortedIDs(r.s.condominiums) {
		c := r.s.condominiums[id]
		if ownerID > 0 && c.OwnerID != ownerID {
			continue
		}
		if filters.Search != "" && !containsFold(c.Name, filters.Search) && !containsFold(c.Address, filters.Search) {
			continue
		}
		all = append(all, c)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	start, end := page(len(all), filters.Page, filters.PageSize)
	return append([]condominium.Condominium{}, all[start:end]...), int64(len(all)), nil
}

type VigilanteRepository struct{ s *Store }

func (r *VigilanteRepository) Create(_ context.Context, v *vigilante.Vigilante) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.vigilantes {
		if existing.CondominiumID == v.CondominiumID && existing.Registration == v.Registration {
			return fmt.Errorf("registration %s: %w", v.Registration, xerrors.ErrDuplicateEntry)
		}
	}
	v.ID = r.s.id()
	v.CreatedAt = r.s.now()
	v.UpdatedAt = v.CreatedAt
	r.s.vigilantes[v.ID] = *v
	return nil
}

func (r *VigilanteRepository) FindByID(_ context.Context, id int64) (*vigilante.Vigilante, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vigilantes[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &v, nil
}

func (r *VigilanteRepository) FindByUserID(_ context.Context, userID int64) (*vigilante.Vigilante, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.vigilantes {
		if v.UserID != nil && *v.UserID == userID {
			return &v, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *VigilanteRepository) Update(_ context.Context, v *vigilante.Vigilante) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.vigilantes[v.ID]; !ok {
		return xerrors.ErrNotFound
	}
	v.UpdatedAt = r.s.now()
	r.s.vigilantes[v.ID] = *v
	return nil
}

func (r *VigilanteRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.vigilantes[id]; !ok {
		return xerrors.ErrNotFound
	}
	for _, c := range r.s.checklists {
		if c.VigilanteID == id {
			return fmt.Errorf("vigilante %d has checklists: %w", id, xerrors.ErrConflict)
		}
	}
	delete(r.s.vigilantes, id)
	return nil
}

func (r *VigilanteRepository) ListByCondominium(_ context.Context, condominiumID int64, onlyActive bool) ([]vigilante.Vigilante, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := []vigilante.Vigilante{}
	for _, id := range sortedIDs(r.s.vigilantes) {
		v := r.s.vigilantes[id]
		if v.CondominiumID == condominiumID && (!onlyActive || v.IsActive) {
			list = append(list, v)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].FullName < list[j].FullName })
	return list, nil
}

func (r *VigilanteRepository) ExistsByRegistration(_ context.Context, condominiumID int64, registration string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.vigilantes {
		if v.CondominiumID == condominiumID && v.Registration == registration {
			return true, nil
		}
	}
	return false, nil
}

type MotorcycleRepository struct{ s *Store }

func (r *MotorcycleRepository) Create(_ context.Context, m *motorcycle.Motorcycle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.Plate = strings.ToUpper(strings.TrimSpace(m.Plate))
	for _, existing := range r.s.motorcycles {
		if existing.CondominiumID == m.CondominiumID && existing.Plate == m.Plate {
			return fmt.Errorf("plate %s: %w", m.Plate, xerrors.ErrDuplicateEntry)
		}
	}
	if m.Status == "" {
		m.Status = motorcycle.StatusActive
	}
	m.ID = r.s.id()
	m.CreatedAt = r.s.now()
	m.UpdatedAt = m.CreatedAt
	r.s.motorcycles[m.ID] = *m
	return nil
}

func (r *MotorcycleRepository) FindByID(_ context.Context, id int64) (*motorcycle.Motorcycle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.motorcycles[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &m, nil
}

func (r *MotorcycleRepository) Update(_ context.Context, m *motorcycle.Motorcycle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.motorcycles[m.ID]; !ok {
		return xerrors.ErrNotFound
	}
	m.Plate = strings.ToUpper(strings.TrimSpace(m.Plate))
	m.UpdatedAt = r.s.now()
	r.s.motorcycles[m.ID] = *m
	return nil
}

func (r *MotorcycleRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.motorcycles[id]; !ok {
		return xerrors.ErrNotFound
	}
	for _, c := range r.s.checklists {
		if c.MotorcycleID == id {
			return fmt.Errorf("motorcycle %d has checklists: %w", id, xerrors.ErrConflict)
		}
	}
	delete(r.s.motorcycles, id)
	return nil
}

func (r *MotorcycleRepository) ListByCondominium(_ context.Context, condominiumID int64, status *motorcycle.Status) ([]motorcycle.Motorcycle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := []motorcycle.Motorcycle{}
	for _, id := range sortedIDs(r.s.motorcycles) {
		m := r.s.motorcycles[id]
		if m.CondominiumID == condominiumID && (status == nil || m.Status == *status) {
			list = append(list, m)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Plate < list[j].Plate })
	return list, nil
}

func (r *MotorcycleRepository) ExistsByPlate(_ context.Context, condominiumID int64, plate string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	plate = strings.ToUpper(strings.TrimSpace(plate))
	for _, m := range r.s.motorcycles {
		if m.CondominiumID == condominiumID && m.Plate == plate {
			return true, nil
		}
	}
	return false, nil
}
