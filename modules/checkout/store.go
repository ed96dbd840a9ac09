package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ludens-school/paywidget/pkg/cache"
)

// Store keeps State per page key (see PageKey).
type Store interface {
	// Load returns ErrStateNotFound for unknown or expired pages.
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, st State) error
	Ping(ctx context.Context) error
}

// MemoryStore keeps states in a bounded LRU. Least recently used pages
// are dropped when capacity is reached.
type MemoryStore struct {
	lru *cache.LRU[string, State]
}

func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{lru: cache.NewLRU(capacity, cache.WithTTL[string, State](ttl))}
}

func (m *MemoryStore) Load(_ context.Context, id string) (State, error) {
	st, ok := m.lru.Get(id)
	if !ok {
		return State{}, ErrStateNotFound
	}
	return cloneState(st), nil
}

func (m *MemoryStore) Save(_ context.Context, id string, st State) error {
	m.lru.Put(id, cloneState(st))
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Len() int { return m.lru.Len() }

// cloneState detaches the slices and maps a caller could mutate.
func cloneState(st State) State {
	st.TokenErrors = slices.Clone(st.TokenErrors)
	st.PremiumErrors = slices.Clone(st.PremiumErrors)
	st.Plans.Catalog = maps.Clone(st.Plans.Catalog)
	return st
}

const redisKeyPrefix = "paywidget:checkout:"

// RedisStore keeps states as JSON with a sliding TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (State, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrStateNotFound
		}
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, st State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+id, raw, s.ttl).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// NewStore builds the store named by cfg.Store. client is only used by the
// redis store and may be nil otherwise.
func NewStore(cfg Config, client redis.UniversalClient) (Store, error) {
	switch cfg.Store {
	case StoreMemory, "":
		return NewMemoryStore(cfg.MemoryCapacity, cfg.StateTTL), nil
	case StoreRedis:
		if client == nil {
			return nil, ErrMissingDependency
		}
		return NewRedisStore(client, cfg.StateTTL), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
}
