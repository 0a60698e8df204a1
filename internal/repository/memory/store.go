// Package memory holds in-memory repositories with the same contracts as
// the Postgres ones. Services are tested against them.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/checklist"
	"vigilance-service/internal/domain/condominium"
	"vigilance-service/internal/domain/motorcycle"
	"vigilance-service/internal/domain/vigilante"
)

// Store is the shared state of all in-memory repositories.
type Store struct {
	mu     sync.Mutex
	nextID int64
	now    func() time.Time

	users        map[int64]auth.User
	condominiums map[int64]condominium.Condominium
	vigilantes   map[int64]vigilante.Vigilante
	motorcycles  map[int64]motorcycle.Motorcycle
	checklists   map[int64]checklist.Checklist

	Users        *UserRepository
	Condominiums *CondominiumRepository
	Vigilantes   *VigilanteRepository
	Motorcycles  *MotorcycleRepository
	Checklists   *ChecklistRepository
}

func NewStore() *Store {
	s := &Store{
		now:          now,
		users:        map[int64]auth.User{},
		condominiums: map[int64]condominium.Condominium{},
		vigilantes:   map[int64]vigilante.Vigilante{},
		motorcycles:  map[int64]motorcycle.Motorcycle{},
		checklists:   map[int64]checklist.Checklist{},
	}
	s.Users = &UserRepository{s: s}
	s.Condominiums = &CondominiumRepository{s: s}
	s.Vigilantes = &VigilanteRepository{s: s}
	s.Motorcycles = &MotorcycleRepository{s: s}
	s.Checklists = &ChecklistRepository{s: s}
	return s
}

// now matches the microsecond precision of Postgres timestamps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SetClock replaces the time source used for created_at values.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func page(total, pageNum, size int) (int, int) {
	if pageNum < 1 {
		pageNum = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	start := (pageNum - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
