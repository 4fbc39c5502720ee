package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"citysense/internal/evaluator"
	"citysense/internal/metrics"
	"citysense/internal/models"
	"citysense/internal/store"
)

// AlertManager drives the alert lifecycle: raising with per-sensor
// deduplication, acknowledge and resolve transitions, and the periodic
// evaluation sweep over the sensor fleet.
type AlertManager struct {
	alerts      AlertStore
	sensors     SensorStore
	suppression *store.SuppressionCache
	logger      *zap.Logger

	now func() time.Time
}

func NewAlertManager(alerts AlertStore, sensors SensorStore, suppression *store.SuppressionCache, logger *zap.Logger) *AlertManager {
	return &AlertManager{
		alerts:      alerts,
		sensors:     sensors,
		suppression: suppression,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *AlertManager) List(ctx context.Context, filters models.AlertFilters) ([]*models.Alert, error) {
	return m.alerts.List(ctx, filters)
}

// ListActive returns alerts with status=active, newest first.
func (m *AlertManager) ListActive(ctx context.Context) ([]*models.Alert, error) {
	status := models.AlertActive
	return m.alerts.List(ctx, models.AlertFilters{Status: &status})
}

func (m *AlertManager) Get(ctx context.Context, id string) (*models.Alert, error) {
	if id == "" {
		return nil, fmt.Errorf("alert id is required: %w", models.ErrInvalidInput)
	}
	return m.alerts.Get(ctx, id)
}

// Create persists an externally supplied alert (for example a simulated
// incident) without any per-sensor deduplication.
func (m *AlertManager) Create(ctx context.Context, alert *models.Alert) error {
	if err := m.alerts.Create(ctx, alert); err != nil {
		return err
	}
	// the store defaults an empty status to active
	if alert.Status == models.AlertActive {
		metrics.ActiveAlerts.Inc()
	}
	return nil
}

// Raise turns a threshold breach into an alert unless the sensor
// already has an active one. The Redis suppression mark is only a fast
// path: the conditional insert below is what actually enforces the
// one-active-alert-per-sensor invariant under concurrency.
// Returns true when a new alert was created.
func (m *AlertManager) Raise(ctx context.Context, sensor *models.Sensor, breach *evaluator.Breach) (bool, error) {
	if sensor == nil || breach == nil {
		return false, fmt.Errorf("sensor and breach are required: %w", models.ErrInvalidInput)
	}

	if m.suppression != nil && !m.suppression.TryAcquire(ctx, sensor.ID) {
		metrics.AlertsSuppressedTotal.Inc()
		m.logger.Debug("alert suppressed by cache mark", zap.String("sensorId", sensor.ID))
		return false, nil
	}

	sensorID := sensor.ID
	triggerValue := breach.TriggerValue
	alert := &models.Alert{
		Title:        fmt.Sprintf("Alerta - %s", sensor.Name),
		Description:  breachDescription(sensor, breach),
		Level:        breach.Level,
		Status:       models.AlertActive,
		Latitude:     sensor.Latitude,
		Longitude:    sensor.Longitude,
		Location:     sensor.Location,
		SensorID:     &sensorID,
		TriggerValue: &triggerValue,
	}

	inserted, err := m.alerts.CreateIfNoActive(ctx, alert)
	if err != nil {
		// The mark was taken optimistically; give it back so a later
		// breach is not silently swallowed by a failed insert.
		if m.suppression != nil {
			m.suppression.Release(ctx, sensor.ID)
		}
		return false, fmt.Errorf("failed to raise alert for sensor %s: %w", sensor.ID, err)
	}
	if !inserted {
		metrics.AlertsSuppressedTotal.Inc()
		m.logger.Debug("alert suppressed, sensor already alerting", zap.String("sensorId", sensor.ID))
		return false, nil
	}

	metrics.AlertsRaisedTotal.WithLabelValues(string(breach.Level)).Inc()
	metrics.ActiveAlerts.Inc()
	m.logger.Info("alert raised",
		zap.String("alertId", alert.ID),
		zap.String("sensorId", sensor.ID),
		zap.String("level", string(breach.Level)),
		zap.Float64("triggerValue", breach.TriggerValue))
	return true, nil
}

// Acknowledge marks the alert as seen. Re-acknowledging simply
// refreshes the timestamp. Deduplication only counts active alerts, so
// the sensor's suppression mark is cleared here: a fresh breach after
// an acknowledge must raise a new alert.
func (m *AlertManager) Acknowledge(ctx context.Context, id string) (*models.Alert, error) {
	if id == "" {
		return nil, fmt.Errorf("alert id is required: %w", models.ErrInvalidInput)
	}
	prior, err := m.alerts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.alerts.Acknowledge(ctx, id, m.now()); err != nil {
		return nil, err
	}
	if prior.Status == models.AlertActive {
		metrics.ActiveAlerts.Dec()
	}
	alert, err := m.alerts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.suppression != nil && alert.SensorID != nil {
		m.suppression.Release(ctx, *alert.SensorID)
	}
	return alert, nil
}

// Resolve closes the alert and clears the sensor's suppression mark so
// future breaches can alert again.
func (m *AlertManager) Resolve(ctx context.Context, id string) (*models.Alert, error) {
	if id == "" {
		return nil, fmt.Errorf("alert id is required: %w", models.ErrInvalidInput)
	}
	prior, err := m.alerts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.alerts.Resolve(ctx, id, m.now()); err != nil {
		return nil, err
	}
	if prior.Status == models.AlertActive {
		metrics.ActiveAlerts.Dec()
	}
	alert, err := m.alerts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.suppression != nil && alert.SensorID != nil {
		m.suppression.Release(ctx, *alert.SensorID)
	}
	return alert, nil
}

func (m *AlertManager) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("alert id is required: %w", models.ErrInvalidInput)
	}
	return m.alerts.Delete(ctx, id)
}

// EvaluateAndRaiseAlerts sweeps the whole fleet through the threshold
// evaluator. A failing sensor is logged and skipped so one bad row
// cannot abort the tick. Returns the number of alerts raised.
func (m *AlertManager) EvaluateAndRaiseAlerts(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(metrics.EvaluationSweepDuration)
	defer timer.ObserveDuration()

	sensors, err := m.sensors.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sensors for evaluation: %w", err)
	}

	raised := 0
	for _, sensor := range sensors {
		breach := evaluator.Evaluate(sensor)
		if breach == nil {
			continue
		}
		created, err := m.Raise(ctx, sensor, breach)
		if err != nil {
			m.logger.Error("failed to raise alert",
				zap.String("sensorId", sensor.ID),
				zap.Error(err))
			continue
		}
		if created {
			raised++
		}
	}

	if raised > 0 {
		m.logger.Info("evaluation sweep complete",
			zap.Int("sensors", len(sensors)),
			zap.Int("alertsRaised", raised))
	}
	return raised, nil
}

func breachDescription(sensor *models.Sensor, breach *evaluator.Breach) string {
	direction := "abaixo"
	if breach.Exceeded {
		direction = "acima"
	}
	return fmt.Sprintf(
		"Sensor %s registrou valor %s do limite estabelecido. Valor atual: %g%s, Limite: %g%s. Localização: %s",
		sensor.Name, direction,
		breach.TriggerValue, sensor.Unit,
		breach.Threshold, sensor.Unit,
		sensor.Location,
	)
}
