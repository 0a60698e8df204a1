// internal/repository/redis/download_store.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	xerrors "vigilance-service/internal/pkg/errors"
)

// Download is an archived file served once or more until it expires.
type Download struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"data"`
	CreatedAt   time.Time `json:"created_at"`
}

type DownloadStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDownloadStore(client *redis.Client, ttl time.Duration) *DownloadStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DownloadStore{client: client, ttl: ttl}
}

func downloadKey(token string) string {
	return "download:" + token
}

// Put archives d and returns its download token.
func (s *DownloadStore) Put(ctx context.Context, d *Download) (string, error) {
	token := ulid.Make().String()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal download: %w", err)
	}
	if err := s.client.Set(ctx, downloadKey(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store download: %w", err)
	}
	return token, nil
}

func (s *DownloadStore) Get(ctx context.Context, token string) (*Download, error) {
	if _, err := ulid.ParseStrict(token); err != nil {
		return nil, xerrors.ErrNotFound
	}

	data, err := s.client.Get(ctx, downloadKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load download: %w", err)
	}

	var d Download
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal download: %w", err)
	}
	return &d, nil
}

// TTL is how long a stored download stays available.
func (s *DownloadStore) TTL() time.Duration {
	return s.ttl
}
