// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores vectors by key. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]float64, bool)
	Set(ctx context.Context, key string, v []float64)
}

// Key derives the cache key for text embedded by model.
func Key(model, text string) string {
	h := sha256.Sum256([]byte(model + "|" + text))
	return "emb:" + hex.EncodeToString(h[:16])
}

// LRU is an in-process least-recently-used cache.
type LRU struct {
	mu   sync.Mutex
	cap  int
	list *list.List               // front = most recent
	m    map[string]*list.Element // key -> element
}

type lruEntry struct {
	key string
	vec []float64
}

// NewLRU creates an LRU holding at most capacity vectors (default 1024).
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LRU{cap: capacity, list: list.New(), m: make(map[string]*list.Element, capacity)}
}

// Get returns the vector for key and marks it most recently used.
func (l *LRU) Get(_ context.Context, key string) ([]float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	el, ok := l.m[key]
	if !ok {
		return nil, false
	}
	l.list.MoveToFront(el)
	return el.Value.(lruEntry).vec, true
}

// Set stores v under key, evicting the least recently used entry when full.
func (l *LRU) Set(_ context.Context, key string, v []float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.m[key]; ok {
		el.Value = lruEntry{key: key, vec: v}
		l.list.MoveToFront(el)
		return
	}
	l.m[key] = l.list.PushFront(lruEntry{key: key, vec: v})
	if l.list.Len() > l.cap {
		oldest := l.list.Back()
		delete(l.m, oldest.Value.(lruEntry).key)
		l.list.Remove(oldest)
	}
}

// Len returns the number of cached vectors.
func (l *LRU) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.list.Len()
}

// RedisCache stores vectors in Redis as little-endian float64 bytes.
// Redis failures are logged and treated as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache connects to addr and pings it once.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", addr, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger.With(zap.String("component", "embedding-cache"))}, nil
}

// Get returns the cached vector for key.
func (r *RedisCache) Get(ctx context.Context, key string) ([]float64, bool) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	v, ok := decodeVector(b)
	if !ok {
		r.logger.Warn("discarding malformed cached vector", zap.String("key", key), zap.Int("bytes", len(b)))
	}
	return v, ok
}

// Set stores v under key with the configured TTL.
func (r *RedisCache) Set(ctx context.Context, key string, v []float64) {
	if err := r.client.Set(ctx, key, encodeVector(v), r.ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the Redis connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func encodeVector(v []float64) []byte {
	b := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(f))
	}
	return b
}

func decodeVector(b []byte) ([]float64, bool) {
	if len(b) == 0 || len(b)%8 != 0 {
		return nil, false
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, true
}

// Tiered consults its caches in order and back-fills faster tiers on a
// hit in a slower one.
type Tiered []Cache

// Get returns the first hit, copying it into the tiers before it.
func (t Tiered) Get(ctx context.Context, key string) ([]float64, bool) {
	for i, c := range t {
		if v, ok := c.Get(ctx, key); ok {
			for _, faster := range t[:i] {
				faster.Set(ctx, key, v)
			}
			return v, true
		}
	}
	return nil, false
}

// Set writes v to every tier.
func (t Tiered) Set(ctx context.Context, key string, v []float64) {
	for _, c := range t {
		c.Set(ctx, key, v)
	}
}

// CachedEmbedder wraps an Embedder with a Cache. Only texts missing from the
// cache reach the wrapped embedder, in a single call.
type CachedEmbedder struct {
	inner Embedder
	cache Cache
}

// NewCachedEmbedder returns inner unchanged when cache is nil.
func NewCachedEmbedder(inner Embedder, cache Cache) Embedder {
	if cache == nil {
		return inner
	}
	return &CachedEmbedder{inner: inner, cache: cache}
}

// ModelName returns the wrapped embedder's model.
func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

// Embed serves cached vectors and embeds the rest.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	model := c.inner.ModelName()
	out := make([][]float64, len(texts))

	var missTexts []string
	missIdx := make(map[string][]int)
	for i, text := range texts {
		if v, ok := c.cache.Get(ctx, Key(model, text)); ok {
			out[i] = v
			continue
		}
		if _, seen := missIdx[text]; !seen {
			missTexts = append(missTexts, text)
		}
		missIdx[text] = append(missIdx[text], i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, text := range missTexts {
		c.cache.Set(ctx, Key(model, text), vecs[j])
		for _, i := range missIdx[text] {
			out[i] = vecs[j]
		}
	}
	return out, nil
}
