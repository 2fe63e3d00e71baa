// Package cache implements the read-through, write-invalidate layer in front
// of the category store.
//
// Every value key embeds the tenant's generation counter:
//
//	catalog:{tenant}:{generation}:{shape}:{params-hash}
//
// Readers resolve the current generation first and only then look up the
// value, while every committed structural mutation bumps the counter before
// the mutation is acknowledged. A bump therefore orphans all value keys of
// the previous generation at once, and a loader that raced with a mutation
// writes its result under the generation it observed before reading the
// database, where no later reader will find it. Stale data can never be
// served after a mutation's acknowledgement; the TTL is only a backstop that
// lets orphaned keys expire.
package cache

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tradecove/catalog/pkg/metrics"
)

type Coordinator struct {
	store Store
	ttl   time.Duration
	log   *logrus.Logger
}

func NewCoordinator(store Store, ttl time.Duration, log *logrus.Logger) *Coordinator {
	return &Coordinator{
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// Invalidate bumps the tenant's generation, orphaning every cached value for
// that tenant. Errors are reported but not returned as failures: losing an
// invalidation only matters if the counter itself is lost, and Generation
// reseeds a lost counter with a fresh value, so stale reads stay impossible.
func (c *Coordinator) Invalidate(ctx context.Context, tenantID uuid.UUID) {
	if _, err := c.store.Incr(ctx, c.generationKey(tenantID)); err != nil {
		metrics.CacheErrors.Inc()
		c.log.WithError(err).WithField("tenant_id", tenantID).Warn("cache invalidation failed")
		return
	}
	metrics.CacheInvalidations.Inc()
}

// Generation resolves the tenant's current generation. A missing counter is
// reseeded with the current wall clock in nanoseconds so that a counter lost
// to eviction can never collide with generations already used before.
func (c *Coordinator) Generation(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	key := c.generationKey(tenantID)

	raw, err := c.store.Get(ctx, key)
	if err == nil {
		return strconv.ParseInt(string(raw), 10, 64)
	}
	if err != ErrCacheMiss {
		return 0, err
	}

	seed := time.Now().UnixNano()
	if _, err := c.store.SetNX(ctx, key, []byte(strconv.FormatInt(seed, 10)), 0); err != nil {
		return 0, err
	}

	// another node may have won the seed race, re-read either way
	raw, err = c.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}

func (c *Coordinator) generationKey(tenantID uuid.UUID) string {
	return "catalog:" + tenantID.String() + ":gen"
}

func (c *Coordinator) valueKey(tenantID uuid.UUID, generation int64, shape, params string) string {
	h := fnv.New64a()
	h.Write([]byte(params))
	return "catalog:" + tenantID.String() + ":" + strconv.FormatInt(generation, 10) +
		":" + shape + ":" + strconv.FormatUint(h.Sum64(), 16)
}

// GetOrLoad serves shape/params from the cache, falling back to load on a
// miss and caching the result under the generation observed before load ran.
// Any cache failure degrades to a plain load; the caller never sees cache
// errors.
func GetOrLoad[T any](
	ctx context.Context,
	c *Coordinator,
	tenantID uuid.UUID,
	shape, params string,
	load func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	if c == nil {
		return load(ctx)
	}

	generation, err := c.Generation(ctx, tenantID)
	if err != nil {
		metrics.CacheErrors.Inc()
		c.log.WithError(err).WithField("tenant_id", tenantID).Warn("cache generation lookup failed")
		return load(ctx)
	}

	key := c.valueKey(tenantID, generation, shape, params)
	if raw, err := c.store.Get(ctx, key); err == nil {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			metrics.CacheHits.WithLabelValues(shape).Inc()
			return cached, nil
		}
		c.log.WithError(err).WithField("key", key).Warn("discarding undecodable cache entry")
	} else if err != ErrCacheMiss {
		metrics.CacheErrors.Inc()
		c.log.WithError(err).WithField("key", key).Warn("cache read failed")
	}

	metrics.CacheMisses.WithLabelValues(shape).Inc()
	result, err := load(ctx)
	if err != nil {
		return zero, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache encode failed")
		return result, nil
	}
	// written under the pre-load generation: a concurrent mutation has
	// already moved readers past this key, so a stale fill is unreachable
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		metrics.CacheErrors.Inc()
		c.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return result, nil
}
