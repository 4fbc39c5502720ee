package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RealtimeReading 传感器最新读数的缓存结构
type RealtimeReading struct {
	SensorID   string    `json:"sensorId"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recordedAt"`
}

// RealtimeCache 缓存每个传感器的最新读数，供查询接口快速返回。
// 缓存不命中时调用方应回退到数据库。
type RealtimeCache struct {
	kv        KVStore
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

func NewRealtimeCache(kv KVStore, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RealtimeCache {
	return &RealtimeCache{kv: kv, keyPrefix: keyPrefix, ttl: ttl, logger: logger}
}

func (c *RealtimeCache) key(sensorID string) string {
	return c.keyPrefix + sensorID
}

// Put 写入最新读数。缓存失败只记录日志，不影响主流程。
func (c *RealtimeCache) Put(ctx context.Context, reading RealtimeReading) {
	data, err := json.Marshal(reading)
	if err != nil {
		c.logger.Warn("failed to marshal realtime reading", zap.Error(err))
		return
	}
	if err := c.kv.Set(ctx, c.key(reading.SensorID), string(data), c.ttl); err != nil {
		c.logger.Warn("failed to cache realtime reading",
			zap.String("sensorId", reading.SensorID),
			zap.Error(err))
	}
}

// Get 读取最新读数，不存在时返回 ErrCacheMiss
func (c *RealtimeCache) Get(ctx context.Context, sensorID string) (*RealtimeReading, error) {
	raw, err := c.kv.Get(ctx, c.key(sensorID))
	if err != nil {
		return nil, err
	}
	var reading RealtimeReading
	if err := json.Unmarshal([]byte(raw), &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal realtime reading: %w", err)
	}
	return &reading, nil
}
