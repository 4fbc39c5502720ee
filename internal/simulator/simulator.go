// Package simulator feeds the engine with synthetic city data: sensor
// readings, random incident alerts and citizen reports. It stands in
// for real field hardware and the citizen-facing app in demo
// deployments; production wires real producers to the same entry
// points.
package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"citysense/internal/config"
	"citysense/internal/metrics"
	"citysense/internal/models"
)

// ReadingSink is where generated readings go (the sensor registry).
type ReadingSink interface {
	ListActive(ctx context.Context) ([]*models.Sensor, error)
	IngestReading(ctx context.Context, sensorID string, value float64, at time.Time) error
}

// AlertSink accepts synthetic incident alerts.
type AlertSink interface {
	Create(ctx context.Context, alert *models.Alert) error
}

// ReportSink accepts synthetic citizen reports.
type ReportSink interface {
	Create(ctx context.Context, report *models.PopulationReport) error
}

// Simulator generates plausible values per sensor type and occasional
// random incidents around central São Paulo.
type Simulator struct {
	readings ReadingSink
	alerts   AlertSink
	reports  ReportSink
	cfg      config.SimulationConfig
	logger   *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func New(readings ReadingSink, alerts AlertSink, reports ReportSink, cfg config.SimulationConfig, logger *zap.Logger) *Simulator {
	return &Simulator{
		readings: readings,
		alerts:   alerts,
		reports:  reports,
		cfg:      cfg,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Simulator) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Simulator) pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// ProduceReadings pushes one fresh value into every active sensor.
// A failing sensor is logged and skipped.
func (s *Simulator) ProduceReadings(ctx context.Context) error {
	sensors, err := s.readings.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active sensors: %w", err)
	}

	updated := 0
	now := s.now()
	for _, sensor := range sensors {
		value := s.SimulatedValue(sensor.Type)
		if err := s.readings.IngestReading(ctx, sensor.ID, value, now); err != nil {
			metrics.ReadingsIngestedTotal.WithLabelValues("simulator", "rejected").Inc()
			s.logger.Warn("failed to ingest simulated reading",
				zap.String("sensorId", sensor.ID),
				zap.Error(err))
			continue
		}
		metrics.ReadingsIngestedTotal.WithLabelValues("simulator", "accepted").Inc()
		updated++
	}
	s.logger.Debug("simulated readings produced", zap.Int("sensors", updated))
	return nil
}

// SimulatedValue returns a value in the plausible range for the sensor
// type. Counted quantities (AQI, vehicles) come out as whole numbers,
// the rest keep two decimals.
func (s *Simulator) SimulatedValue(sensorType models.SensorType) float64 {
	r := s.roll()
	switch sensorType {
	case models.SensorTemperature:
		return round2(r*30 + 10) // 10-40 °C
	case models.SensorHumidity:
		return round2(r*60 + 30) // 30-90 %
	case models.SensorAirQuality:
		return math.Round(r * 200) // 0-200 AQI
	case models.SensorNoise:
		return round2(r*50 + 30) // 30-80 dB
	case models.SensorTraffic:
		return math.Round(r*80 + 10) // 10-90 vehicles/min
	case models.SensorFlood:
		return round2(r * 150) // 0-150 cm
	case models.SensorEarthquake:
		return round2(r * 5) // 0-5 magnitude
	default:
		return round2(r * 100)
	}
}

// ProduceAlert occasionally files one random city incident. Returns
// true when an alert was created this tick.
func (s *Simulator) ProduceAlert(ctx context.Context) (bool, error) {
	if s.roll() >= s.cfg.RandomAlertProb {
		return false, nil
	}

	location := cityLocations[s.pick(len(cityLocations))]
	incident := incidentTypes[s.pick(len(incidentTypes))]

	alert := &models.Alert{
		Title:       incident.title,
		Description: fmt.Sprintf("%s Localização: %s", incident.description, location.name),
		Level:       incident.level,
		Status:      models.AlertActive,
		Latitude:    location.lat,
		Longitude:   location.lng,
		Location:    location.name,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return false, fmt.Errorf("failed to create simulated alert: %w", err)
	}
	s.logger.Info("simulated incident alert created", zap.String("title", alert.Title))
	return true, nil
}

// ProduceReport occasionally files one random citizen report. Returns
// true when a report was created this tick.
func (s *Simulator) ProduceReport(ctx context.Context) (bool, error) {
	if s.roll() >= s.cfg.RandomReportProb {
		return false, nil
	}

	location := reportLocations[s.pick(len(reportLocations))]
	template := reportTemplates[s.pick(len(reportTemplates))]
	title := template.titles[s.pick(len(template.titles))]
	description := template.descriptions[s.pick(len(template.descriptions))]
	citizen := citizenNames[s.pick(len(citizenNames))]
	contact := strings.Replace(strings.ToLower(citizen), " ", ".", 1) + "@email.com"

	report := &models.PopulationReport{
		Title:          title,
		Description:    description,
		Type:           template.reportType,
		Priority:       template.priority,
		Latitude:       location.lat,
		Longitude:      location.lng,
		Location:       location.name,
		CitizenName:    &citizen,
		CitizenContact: &contact,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return false, fmt.Errorf("failed to create simulated report: %w", err)
	}
	metrics.ReportsFiledTotal.WithLabelValues("simulator").Inc()
	s.logger.Info("simulated citizen report created", zap.String("title", title))
	return true, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
