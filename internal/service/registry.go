package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"citysense/internal/geo"
	"citysense/internal/models"
	"citysense/internal/store"
)

// DefaultNearbyRadiusKm is used when a proximity query gives no radius.
const DefaultNearbyRadiusKm = 5.0

// NearbySensor pairs a sensor with its distance to the query point.
type NearbySensor struct {
	*models.Sensor
	DistanceKm float64 `json:"distanceKm"`
}

// SensorRegistry owns sensor entities: CRUD, reading ingestion and the
// proximity query.
type SensorRegistry struct {
	sensors  SensorStore
	realtime *store.RealtimeCache
	logger   *zap.Logger
}

func NewSensorRegistry(sensors SensorStore, realtime *store.RealtimeCache, logger *zap.Logger) *SensorRegistry {
	return &SensorRegistry{sensors: sensors, realtime: realtime, logger: logger}
}

func (s *SensorRegistry) List(ctx context.Context) ([]*models.Sensor, error) {
	return s.sensors.List(ctx)
}

func (s *SensorRegistry) ListActive(ctx context.Context) ([]*models.Sensor, error) {
	return s.sensors.ListByStatus(ctx, models.SensorActive)
}

func (s *SensorRegistry) Get(ctx context.Context, id string) (*models.Sensor, error) {
	if id == "" {
		return nil, fmt.Errorf("sensor id is required: %w", models.ErrInvalidInput)
	}
	return s.sensors.Get(ctx, id)
}

func (s *SensorRegistry) Create(ctx context.Context, sensor *models.Sensor) error {
	if err := s.sensors.Create(ctx, sensor); err != nil {
		return err
	}
	s.logger.Info("sensor registered",
		zap.String("sensorId", sensor.ID),
		zap.String("type", string(sensor.Type)),
		zap.String("location", sensor.Location))
	return nil
}

func (s *SensorRegistry) Update(ctx context.Context, id string, patch *models.SensorPatch) (*models.Sensor, error) {
	if id == "" {
		return nil, fmt.Errorf("sensor id is required: %w", models.ErrInvalidInput)
	}
	if err := s.sensors.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.sensors.Get(ctx, id)
}

// Delete removes the sensor only. Alerts keep their stored sensor id;
// there is no cascade.
func (s *SensorRegistry) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("sensor id is required: %w", models.ErrInvalidInput)
	}
	return s.sensors.Delete(ctx, id)
}

func (s *SensorRegistry) Count(ctx context.Context) (int, error) {
	return s.sensors.Count(ctx)
}

// IngestReading records a new reading for the sensor and refreshes the
// realtime cache. The cache write is best-effort.
func (s *SensorRegistry) IngestReading(ctx context.Context, sensorID string, value float64, at time.Time) error {
	if sensorID == "" {
		return fmt.Errorf("sensor id is required: %w", models.ErrInvalidInput)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := s.sensors.UpdateReading(ctx, sensorID, value, at); err != nil {
		return err
	}
	if s.realtime != nil {
		s.realtime.Put(ctx, store.RealtimeReading{
			SensorID:   sensorID,
			Value:      value,
			RecordedAt: at,
		})
	}
	return nil
}

// LatestReading returns the cached latest reading for the sensor,
// falling back to the stored row when the cache misses.
func (s *SensorRegistry) LatestReading(ctx context.Context, sensorID string) (*store.RealtimeReading, error) {
	if s.realtime != nil {
		reading, err := s.realtime.Get(ctx, sensorID)
		if err == nil {
			return reading, nil
		}
		if !errors.Is(err, store.ErrCacheMiss) {
			s.logger.Warn("realtime cache read failed", zap.String("sensorId", sensorID), zap.Error(err))
		}
	}

	sensor, err := s.sensors.Get(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	if sensor.CurrentValue == nil || sensor.LastReading == nil {
		return nil, models.ErrNotFound
	}
	return &store.RealtimeReading{
		SensorID:   sensor.ID,
		Value:      *sensor.CurrentValue,
		RecordedAt: *sensor.LastReading,
	}, nil
}

// FindNearby returns all sensors strictly closer than radiusKm to the
// point, sorted by ascending distance. A sensor exactly at the boundary
// is excluded.
func (s *SensorRegistry) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]NearbySensor, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}

	sensors, err := s.sensors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors for proximity query: %w", err)
	}

	nearby := make([]NearbySensor, 0, len(sensors))
	for _, sensor := range sensors {
		d := geo.DistanceKm(lat, lng, sensor.Latitude, sensor.Longitude)
		if d < radiusKm {
			nearby = append(nearby, NearbySensor{Sensor: sensor, DistanceKm: d})
		}
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceKm < nearby[j].DistanceKm })
	return nearby, nil
}

// Seed installs the bundled São Paulo sensor fleet when the registry is
// empty. Returns the number of sensors created (0 when already seeded).
func (s *SensorRegistry) Seed(ctx context.Context) (int, error) {
	count, err := s.sensors.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count sensors: %w", err)
	}
	if count > 0 {
		s.logger.Info("sensors already present, skipping seed", zap.Int("count", count))
		return 0, nil
	}

	for i := range seedSensors {
		sensor := seedSensors[i]
		if err := s.sensors.Create(ctx, &sensor); err != nil {
			return i, fmt.Errorf("failed to seed sensor %q: %w", sensor.Name, err)
		}
	}
	s.logger.Info("seed sensors created", zap.Int("count", len(seedSensors)))
	return len(seedSensors), nil
}

func ptr(v float64) *float64 { return &v }

// seedSensors is the initial fleet covering central São Paulo.
var seedSensors = []models.Sensor{
	{
		Name: "Sensor Temperatura Centro", Type: models.SensorTemperature,
		Latitude: -23.5505, Longitude: -46.6333, Location: "Centro de São Paulo",
		Unit: "°C", MinThreshold: ptr(5), MaxThreshold: ptr(40),
	},
	{
		Name: "Sensor Qualidade do Ar Vila Madalena", Type: models.SensorAirQuality,
		Latitude: -23.5598, Longitude: -46.6890, Location: "Vila Madalena",
		Unit: "AQI", MinThreshold: ptr(0), MaxThreshold: ptr(150),
	},
	{
		Name: "Sensor Tráfego Av. Paulista", Type: models.SensorTraffic,
		Latitude: -23.5613, Longitude: -46.6565, Location: "Avenida Paulista",
		Unit: "veículos/min", MinThreshold: ptr(0), MaxThreshold: ptr(100),
	},
	{
		Name: "Sensor Umidade Ibirapuera", Type: models.SensorHumidity,
		Latitude: -23.5873, Longitude: -46.6578, Location: "Parque Ibirapuera",
		Unit: "%", MinThreshold: ptr(30), MaxThreshold: ptr(90),
	},
	{
		Name: "Sensor Ruído Liberdade", Type: models.SensorNoise,
		Latitude: -23.5587, Longitude: -46.6347, Location: "Bairro da Liberdade",
		Unit: "dB", MinThreshold: ptr(30), MaxThreshold: ptr(85),
	},
	{
		Name: "Sensor Enchente Marginal", Type: models.SensorFlood,
		Latitude: -23.5290, Longitude: -46.6658, Location: "Marginal Tietê",
		Unit: "cm", MinThreshold: ptr(0), MaxThreshold: ptr(200),
	},
}
