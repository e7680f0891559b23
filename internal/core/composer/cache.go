package composer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/redis/go-redis/v9"
)

const DefaultCacheTTL = time.Hour

// DeckCache keeps recently composed decks for runs that are not persisted
type DeckCache interface {
	Put(ctx context.Context, id string, d *deck.FinalDeck) error
	Get(ctx context.Context, id string) (*deck.FinalDeck, bool, error)
}

type memoryEntry struct {
	deck      *deck.FinalDeck
	expiresAt time.Time
}

// MemoryCache is a process-scoped DeckCache. Entries are lost on restart.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory deck cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryCache) Put(ctx context.Context, id string, d *deck.FinalDeck) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = memoryEntry{deck: d, expiresAt: m.now().Add(m.ttl)}

	// opportunistic eviction
	for k, e := range m.entries {
		if m.now().After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, id string) (*deck.FinalDeck, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok || m.now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.deck, true, nil
}

const redisKeyPrefix = "deckgen:deck:"

// RedisCache stores decks as JSON in Redis with a TTL
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to Redis and verifies connectivity
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (r *RedisCache) Put(ctx context.Context, id string, d *deck.FinalDeck) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}
	return r.rdb.Set(ctx, redisKeyPrefix+id, payload, r.ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, id string) (*deck.FinalDeck, bool, error) {
	val, err := r.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var d deck.FinalDeck
	if err := json.Unmarshal(val, &d); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached deck: %w", err)
	}
	return &d, true, nil
}

// Ping reports whether Redis is reachable
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the Redis connection pool
func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
