package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"citysense/internal/models"
	"citysense/internal/store"
)

func newTestRealtimeCache(t *testing.T) *store.RealtimeCache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return store.NewRealtimeCache(store.NewRedisKV(client), "citysense:sensor:", 5*time.Minute, zap.NewNop())
}

func TestRegistrySeed_Idempotent(t *testing.T) {
	sensors := newFakeSensorStore()
	registry := NewSensorRegistry(sensors, nil, zap.NewNop())
	ctx := context.Background()

	created, err := registry.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, created)

	count, err := registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	// second seed is a no-op
	created, err = registry.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	count, err = registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestRegistrySeed_AllSensorsHaveThresholds(t *testing.T) {
	sensors := newFakeSensorStore()
	registry := NewSensorRegistry(sensors, nil, zap.NewNop())

	_, err := registry.Seed(context.Background())
	require.NoError(t, err)

	all, err := registry.List(context.Background())
	require.NoError(t, err)
	for _, s := range all {
		assert.NotNil(t, s.MaxThreshold, s.Name)
		assert.Equal(t, models.SensorActive, s.Status, s.Name)
	}
}

func TestRegistryIngestReading(t *testing.T) {
	sensors := newFakeSensorStore()
	sensor := sensors.add(&models.Sensor{Name: "Sensor Temperatura Centro", Type: models.SensorTemperature})
	cache := newTestRealtimeCache(t)
	registry := NewSensorRegistry(sensors, cache, zap.NewNop())
	ctx := context.Background()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, registry.IngestReading(ctx, sensor.ID, 28.4, at))

	got, err := registry.Get(ctx, sensor.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentValue)
	assert.Equal(t, 28.4, *got.CurrentValue)
	require.NotNil(t, got.LastReading)
	assert.True(t, got.LastReading.Equal(at))

	// reading is served from the realtime cache
	reading, err := registry.LatestReading(ctx, sensor.ID)
	require.NoError(t, err)
	assert.Equal(t, 28.4, reading.Value)
	assert.True(t, reading.RecordedAt.Equal(at))
}

func TestRegistryIngestReading_UnknownSensor(t *testing.T) {
	registry := NewSensorRegistry(newFakeSensorStore(), nil, zap.NewNop())

	err := registry.IngestReading(context.Background(), "missing", 1.0, time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRegistryLatestReading_FallsBackToStore(t *testing.T) {
	sensors := newFakeSensorStore()
	value := 55.0
	last := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	sensor := sensors.add(&models.Sensor{
		Name: "Sensor Ruído Liberdade", Type: models.SensorNoise,
		CurrentValue: &value, LastReading: &last,
	})
	registry := NewSensorRegistry(sensors, newTestRealtimeCache(t), zap.NewNop())

	reading, err := registry.LatestReading(context.Background(), sensor.ID)
	require.NoError(t, err)
	assert.Equal(t, 55.0, reading.Value)
	assert.True(t, reading.RecordedAt.Equal(last))
}

func TestRegistryFindNearby(t *testing.T) {
	sensors := newFakeSensorStore()
	center := sensors.add(&models.Sensor{Name: "center", Latitude: 0, Longitude: 0})
	near := sensors.add(&models.Sensor{Name: "near", Latitude: 0, Longitude: 0.01})
	// ~5.004 km north, just outside a 5 km radius
	sensors.add(&models.Sensor{Name: "boundary", Latitude: 0.045, Longitude: 0})
	sensors.add(&models.Sensor{Name: "far", Latitude: 1, Longitude: 1})

	registry := NewSensorRegistry(sensors, nil, zap.NewNop())
	nearby, err := registry.FindNearby(context.Background(), 0, 0, 5)
	require.NoError(t, err)

	require.Len(t, nearby, 2)
	// sorted by ascending distance
	assert.Equal(t, center.ID, nearby[0].ID)
	assert.Equal(t, near.ID, nearby[1].ID)
	assert.Less(t, nearby[0].DistanceKm, nearby[1].DistanceKm)
}

func TestRegistryFindNearby_DefaultRadius(t *testing.T) {
	sensors := newFakeSensorStore()
	sensors.add(&models.Sensor{Name: "near", Latitude: 0, Longitude: 0.01})
	registry := NewSensorRegistry(sensors, nil, zap.NewNop())

	nearby, err := registry.FindNearby(context.Background(), 0, 0, 0)
	require.NoError(t, err)
	assert.Len(t, nearby, 1)
}

func TestRegistryUpdate(t *testing.T) {
	sensors := newFakeSensorStore()
	sensor := sensors.add(&models.Sensor{Name: "old name", Type: models.SensorTemperature})
	registry := NewSensorRegistry(sensors, nil, zap.NewNop())

	name := "new name"
	status := models.SensorMaintenance
	updated, err := registry.Update(context.Background(), sensor.ID, &models.SensorPatch{Name: &name, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "new name", updated.Name)
	assert.Equal(t, models.SensorMaintenance, updated.Status)

	_, err = registry.Update(context.Background(), "", &models.SensorPatch{Name: &name})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
