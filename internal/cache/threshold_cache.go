// Package cache provides a Redis-backed cache for SLA threshold lookups so
// repeated evaluation cycles do not hammer the configuration table.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/config"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_threshold_cache_hits_total",
		Help: "Threshold lookups served from Redis",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_threshold_cache_misses_total",
		Help: "Threshold lookups that fell through to the database",
	})
	cacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_threshold_cache_errors_total",
		Help: "Redis errors during threshold cache operations",
	})
)

// ThresholdCache caches threshold rows keyed by their lookup triple. A nil
// client degrades to a pass-through: Get always misses, Set is a no-op.
type ThresholdCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewThresholdCache builds the cache from the Redis section of the config.
// Returns a pass-through cache when Redis is disabled.
func NewThresholdCache(cfg config.RedisConfig) *ThresholdCache {
	c := &ThresholdCache{
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.ThresholdTTL,
	}
	if !cfg.Enabled {
		return c
	}
	c.client = redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})
	return c
}

// Get returns the cached threshold for the triple, or (nil, false).
func (c *ThresholdCache) Get(ctx context.Context, caseTypeID int64, milestone models.MilestoneType, locationTypeID *int64) (*models.SlaThreshold, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, c.key(caseTypeID, milestone, locationTypeID)).Bytes()
	if err == redis.Nil {
		cacheMisses.Inc()
		return nil, false
	}
	if err != nil {
		cacheErrors.Inc()
		return nil, false
	}

	var t models.SlaThreshold
	if err := json.Unmarshal(raw, &t); err != nil {
		cacheErrors.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return &t, true
}

// Set stores the threshold under its lookup key for the configured TTL.
func (c *ThresholdCache) Set(ctx context.Context, t *models.SlaThreshold) {
	if c == nil || c.client == nil || t == nil {
		return
	}
	raw, err := json.Marshal(t)
	if err != nil {
		cacheErrors.Inc()
		return
	}
	if err := c.client.Set(ctx, c.key(t.CaseTypeID, t.MilestoneType, t.LocationTypeID), raw, c.ttl).Err(); err != nil {
		cacheErrors.Inc()
	}
}

// Close releases the underlying Redis connection.
func (c *ThresholdCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *ThresholdCache) key(caseTypeID int64, milestone models.MilestoneType, locationTypeID *int64) string {
	loc := int64(0)
	if locationTypeID != nil {
		loc = *locationTypeID
	}
	return fmt.Sprintf("%sthreshold:%d:%d:%d", c.keyPrefix, caseTypeID, int64(milestone), loc)
}
