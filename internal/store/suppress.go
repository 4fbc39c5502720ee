package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SuppressionCache keeps a short-lived mark per sensor while that sensor
// has an active alert. It is a fast path in front of the database's
// one-active-alert-per-sensor constraint: losing the mark is harmless
// because the conditional insert still enforces the invariant.
type SuppressionCache struct {
	kv        KVStore
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

func NewSuppressionCache(kv KVStore, keyPrefix string, ttl time.Duration, logger *zap.Logger) *SuppressionCache {
	return &SuppressionCache{kv: kv, keyPrefix: keyPrefix, ttl: ttl, logger: logger}
}

func (c *SuppressionCache) key(sensorID string) string {
	return c.keyPrefix + sensorID
}

// TryAcquire marks the sensor as having an active alert. It returns false
// when a mark already exists. Redis errors are treated as "not suppressed"
// so alerting never stalls on a cache outage.
func (c *SuppressionCache) TryAcquire(ctx context.Context, sensorID string) bool {
	ok, err := c.kv.SetNX(ctx, c.key(sensorID), "1", c.ttl)
	if err != nil {
		c.logger.Warn("suppression cache unavailable, falling back to database check",
			zap.String("sensorId", sensorID),
			zap.Error(err))
		return true
	}
	return ok
}

// Release drops the mark. Called whenever the sensor's alert leaves
// the active status, since only active alerts suppress new raises.
func (c *SuppressionCache) Release(ctx context.Context, sensorID string) {
	if err := c.kv.Del(ctx, c.key(sensorID)); err != nil {
		c.logger.Warn("failed to release suppression mark",
			zap.String("sensorId", sensorID),
			zap.Error(err))
	}
}
