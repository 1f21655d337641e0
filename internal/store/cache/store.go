// Package cache puts a Redis read-through cache in front of another
// FranchiseStore. Writes go to the wrapped store first, then bump a per-id
// version and evict the cached copy. A read-through fill only lands when the
// version it saw before reading the wrapped store is still current, so a read
// that raced a write never caches the older aggregate.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"time"

	"github.com/redis/go-redis/v9"

	"franchise-service/internal/common/logger"
	"franchise-service/internal/common/metrics"
	"franchise-service/internal/domain"
	"franchise-service/internal/models"
)

const (
	keyPrefix        = "franchise:"
	versionKeyPrefix = "franchise-version:"
)

// KEYS: entry, version. ARGV: version seen before the read, payload, ttl ms.
var fillScript = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or ""
if current ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ttl)
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// KEYS: entry, version. ARGV: version ttl ms.
var evictScript = redis.NewScript(`
redis.call("INCR", KEYS[2])
local ttl = tonumber(ARGV[1])
if ttl > 0 then
	redis.call("PEXPIRE", KEYS[2], ttl)
end
return redis.call("DEL", KEYS[1])
`)

type Store struct {
	next   domain.FranchiseStore
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func New(next domain.FranchiseStore, client redis.Cmdable, ttl time.Duration, log logger.Logger) *Store {
	return &Store{next: next, redis: client, ttl: ttl, logger: log}
}

func key(id string) string { return keyPrefix + id }

func versionKey(id string) string { return versionKeyPrefix + id }

func (s *Store) Save(ctx context.Context, franchise *domain.Franchise) (*domain.Franchise, error) {
	saved, err := s.next.Save(ctx, franchise)
	if err != nil {
		return nil, err
	}
	s.evict(ctx, franchise.ID)
	return saved, nil
}

// FindByID serves from Redis when it can. Redis failures degrade to a read
// from the wrapped store; they are logged, never returned.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.Franchise, error) {
	fillable := false
	vals, err := s.redis.MGet(ctx, key(id), versionKey(id)).Result()
	switch {
	case err != nil:
		metrics.StoreCacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("cache read failed", map[string]interface{}{"franchiseId": id, "error": err.Error()})
	case vals[0] == nil:
		metrics.StoreCacheLookups.WithLabelValues("miss").Inc()
		fillable = true
	default:
		var doc models.Franchise
		if raw, ok := vals[0].(string); ok && json.Unmarshal([]byte(raw), &doc) == nil {
			metrics.StoreCacheLookups.WithLabelValues("hit").Inc()
			return doc.ToDomain(), nil
		}
		metrics.StoreCacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"franchiseId": id})
		fillable = true
	}
	var version string
	if fillable {
		version, _ = vals[1].(string)
	}

	f, err := s.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fillable {
		s.fill(ctx, id, version, f)
	}
	return f, nil
}

// fill caches f unless a write bumped the version after it was read.
func (s *Store) fill(ctx context.Context, id, version string, f *domain.Franchise) {
	data, err := json.Marshal(models.FranchiseFromDomain(f))
	if err != nil {
		s.logger.Warn("cache write failed", map[string]interface{}{"franchiseId": id, "error": err.Error()})
		return
	}

	stored, err := fillScript.Run(ctx, s.redis, []string{key(id), versionKey(id)},
		version, data, s.ttl.Milliseconds()).Int()
	switch {
	case err != nil:
		s.logger.Warn("cache write failed", map[string]interface{}{"franchiseId": id, "error": err.Error()})
	case stored == 0:
		s.logger.Debug("franchise changed during read, cache fill skipped", map[string]interface{}{"franchiseId": id})
	}
}

// FindAll is not cached.
func (s *Store) FindAll(ctx context.Context) iter.Seq2[*domain.Franchise, error] {
	return s.next.FindAll(ctx)
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if err := s.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

// ExistsByID answers true from a cached entry; anything else asks the wrapped store.
func (s *Store) ExistsByID(ctx context.Context, id string) (bool, error) {
	if n, err := s.redis.Exists(ctx, key(id)).Result(); err == nil && n > 0 {
		metrics.StoreCacheLookups.WithLabelValues("hit").Inc()
		return true, nil
	}
	return s.next.ExistsByID(ctx, id)
}

// Ping checks Redis and then the wrapped store when it can be pinged.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if p, ok := s.next.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// evict bumps the version before deleting the entry, in one script, so an
// in-flight fill that saw the old version is rejected.
func (s *Store) evict(ctx context.Context, id string) {
	err := evictScript.Run(ctx, s.redis, []string{key(id), versionKey(id)}, s.versionTTL().Milliseconds()).Err()
	if err != nil {
		s.logger.Warn("cache eviction failed", map[string]interface{}{"franchiseId": id, "error": err.Error()})
	}
}

// versionTTL outlives any cached entry so a fill cannot see a version reset.
func (s *Store) versionTTL() time.Duration {
	return 2 * s.ttl
}

var _ domain.FranchiseStore = (*Store)(nil)
