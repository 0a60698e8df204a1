// internal/repository/redis/draft_store.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vigilance-service/internal/domain/checklist"
	xerrors "vigilance-service/internal/pkg/errors"
)

const maxDraftRetries = 10

var ErrDraftContention = fmt.Errorf("draft is being modified concurrently: %w", xerrors.ErrConflict)

// DraftStore keeps one checklist draft per user under draft:<user_id>.
// Writers serialize through WATCH/MULTI so a lost update is retried.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &DraftStore{client: client, ttl: ttl}
}

func draftKey(userID int64) string {
	return fmt.Sprintf("draft:%d", userID)
}

// Get returns the stored draft or a fresh one when nothing is stored.
func (s *DraftStore) Get(ctx context.Context, userID int64) (*checklist.Draft, error) {
	data, err := s.client.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return checklist.NewDraft(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return decodeDraft(data)
}

func (s *DraftStore) Mutate(ctx context.Context, userID int64, fn func(d *checklist.Draft) error) (*checklist.Draft, error) {
	key := draftKey(userID)
	var result *checklist.Draft

	txf := func(tx *redis.Tx) error {
		draft := checklist.NewDraft()
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if draft, err = decodeDraft(data); err != nil {
				return err
			}
		}

		if err := fn(draft); err != nil {
			return err
		}
		draft.UpdatedAt = time.Now().UTC()

		encoded, err := json.Marshal(draft)
		if err != nil {
			return fmt.Errorf("failed to marshal draft: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err == nil {
			result = draft
		}
		return err
	}

	for i := 0; i < maxDraftRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrDraftContention
}

func (s *DraftStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, draftKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func decodeDraft(data []byte) (*checklist.Draft, error) {
	draft := checklist.NewDraft()
	if err := json.Unmarshal(data, draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	if draft.Components == nil {
		draft.Components = map[checklist.ComponentKey]checklist.Component{}
	}
	return draft, nil
}
