package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rulebook/internal/constants"
	"rulebook/pkg/metrics"
)

// CachedRepository layers a redis read-through cache over GetByID. Rule text
// is immutable after create, so cached entries can never go stale; Create and
// List always hit the underlying store.
type CachedRepository struct {
	inner Repository
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedRepository(inner Repository, cache *redis.Client, ttlSeconds int) *CachedRepository {
	if ttlSeconds <= 0 {
		ttlSeconds = constants.DefaultCacheTTLSeconds
	}
	return &CachedRepository{
		inner: inner,
		cache: cache,
		ttl:   time.Duration(ttlSeconds) * time.Second,
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("%s%d", constants.CacheKeyPrefixRule, id)
}

func (r *CachedRepository) Create(ctx context.Context, ruleString string) (int64, error) {
	return r.inner.Create(ctx, ruleString)
}

func (r *CachedRepository) GetByID(ctx context.Context, id int64) (*Rule, error) {
	key := cacheKey(id)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		metrics.IncRuleCacheRequest("hit")
		return &Rule{ID: id, RuleString: val}, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Cache trouble falls through to the store.
		metrics.IncRuleCacheRequest("error")
	} else {
		metrics.IncRuleCacheRequest("miss")
	}

	rule, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, rule.RuleString, r.ttl).Err()
	return rule, nil
}

func (r *CachedRepository) List(ctx context.Context) ([]Rule, error) {
	return r.inner.List(ctx)
}
