// Package draft owns the document being edited and keeps a durable snapshot of it.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	redis "github.com/redis/go-redis/v9"

	"github.com/smallbiznis/invoicekit/internal/cache"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

// ErrNotFound is returned when no draft is stored under a key.
var ErrNotFound = errors.New("draft_not_found")

// Key identifies one draft slot: a user has at most one draft per document kind.
type Key struct {
	UserID string
	Kind   domain.Kind
}

func (k Key) String() string {
	return fmt.Sprintf("draft:%s:%s", k.Kind, k.UserID)
}

type Store interface {
	Save(ctx context.Context, key Key, doc domain.Document) error
	Load(ctx context.Context, key Key) (domain.Document, error)
	Delete(ctx context.Context, key Key) error
}

// MemoryStore keeps drafts in process.
type MemoryStore struct {
	items cache.Cache[Key, domain.Document]
	ttl   time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{items: cache.NewTTLCache[Key, domain.Document](), ttl: ttl}
}

func (s *MemoryStore) Save(_ context.Context, key Key, doc domain.Document) error {
	s.items.Set(key, doc.Clone(), s.ttl)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key Key) (domain.Document, error) {
	doc, ok := s.items.Get(key)
	if !ok {
		return domain.Document{}, ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.items.Delete(key)
	return nil
}

// RedisStore keeps snappy-compressed JSON drafts in redis.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, key Key, doc domain.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key.String(), snappy.Encode(nil, raw), s.ttl).Err(); err != nil {
		return &domain.ExternalServiceError{Service: "redis", Op: "save_draft", Cause: err}
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key Key) (domain.Document, error) {
	payload, err := s.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Document{}, ErrNotFound
	}
	if err != nil {
		return domain.Document{}, &domain.ExternalServiceError{Service: "redis", Op: "load_draft", Cause: err}
	}

	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return domain.Document{}, fmt.Errorf("decode draft: %w", err)
	}
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("decode draft: %w", err)
	}
	return doc, nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		return &domain.ExternalServiceError{Service: "redis", Op: "delete_draft", Cause: err}
	}
	return nil
}
