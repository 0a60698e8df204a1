package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"vigilance-service/internal/domain/checklist"
)

// DraftStore keeps drafts in a map, encoded the same way the Redis store does.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[int64][]byte
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: map[int64][]byte{}}
}

func (s *DraftStore) Get(_ context.Context, userID int64) (*checklist.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(userID)
}

func (s *DraftStore) load(userID int64) (*checklist.Draft, error) {
	d := checklist.NewDraft()
	data, ok := s.drafts[userID]
	if !ok {
		return d, nil
	}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DraftStore) Mutate(_ context.Context, userID int64, fn func(d *checklist.Draft) error) (*checklist.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	d.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	s.drafts[userID] = data
	return d, nil
}

func (s *DraftStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
	return nil
}
