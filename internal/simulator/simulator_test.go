package simulator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"citysense/internal/config"
	"citysense/internal/models"
)

type sinkRecorder struct {
	sensors  []*models.Sensor
	readings map[string]float64
	alerts   []*models.Alert
	reports  []*models.PopulationReport
	err      error
}

func newSinkRecorder(sensors ...*models.Sensor) *sinkRecorder {
	return &sinkRecorder{sensors: sensors, readings: make(map[string]float64)}
}

func (r *sinkRecorder) ListActive(ctx context.Context) ([]*models.Sensor, error) {
	return r.sensors, r.err
}

func (r *sinkRecorder) IngestReading(ctx context.Context, sensorID string, value float64, at time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.readings[sensorID] = value
	return nil
}

func (r *sinkRecorder) Create(ctx context.Context, v *models.Alert) error {
	if r.err != nil {
		return r.err
	}
	r.alerts = append(r.alerts, v)
	return nil
}

type reportRecorder struct {
	reports []*models.PopulationReport
}

func (r *reportRecorder) Create(ctx context.Context, report *models.PopulationReport) error {
	r.reports = append(r.reports, report)
	return nil
}

func newTestSimulator(sink *sinkRecorder, reports *reportRecorder, cfg config.SimulationConfig, seed int64) *Simulator {
	s := New(sink, sink, reports, cfg, zap.NewNop())
	s.rng = rand.New(rand.NewSource(seed))
	return s
}

func TestSimulatedValue_Ranges(t *testing.T) {
	s := newTestSimulator(newSinkRecorder(), &reportRecorder{}, config.SimulationConfig{}, 7)

	ranges := map[models.SensorType][2]float64{
		models.SensorTemperature: {10, 40},
		models.SensorHumidity:    {30, 90},
		models.SensorAirQuality:  {0, 200},
		models.SensorNoise:       {30, 80},
		models.SensorTraffic:     {10, 90},
		models.SensorFlood:       {0, 150},
		models.SensorEarthquake:  {0, 5},
	}
	for sensorType, bounds := range ranges {
		for i := 0; i < 500; i++ {
			v := s.SimulatedValue(sensorType)
			assert.GreaterOrEqual(t, v, bounds[0], sensorType)
			assert.LessOrEqual(t, v, bounds[1], sensorType)
		}
	}
}

func TestSimulatedValue_CountedTypesAreWhole(t *testing.T) {
	s := newTestSimulator(newSinkRecorder(), &reportRecorder{}, config.SimulationConfig{}, 7)

	for i := 0; i < 200; i++ {
		aqi := s.SimulatedValue(models.SensorAirQuality)
		assert.Equal(t, math.Trunc(aqi), aqi)
		traffic := s.SimulatedValue(models.SensorTraffic)
		assert.Equal(t, math.Trunc(traffic), traffic)
	}
}

func TestProduceReadings(t *testing.T) {
	sink := newSinkRecorder(
		&models.Sensor{ID: "t-1", Type: models.SensorTemperature},
		&models.Sensor{ID: "f-1", Type: models.SensorFlood},
	)
	s := newTestSimulator(sink, &reportRecorder{}, config.SimulationConfig{}, 7)

	require.NoError(t, s.ProduceReadings(context.Background()))
	assert.Len(t, sink.readings, 2)
	assert.Contains(t, sink.readings, "t-1")
	assert.Contains(t, sink.readings, "f-1")
}

func TestProduceReadings_PropagatesListFailure(t *testing.T) {
	sink := newSinkRecorder()
	sink.err = errors.New("db down")
	s := newTestSimulator(sink, &reportRecorder{}, config.SimulationConfig{}, 7)

	assert.Error(t, s.ProduceReadings(context.Background()))
}

func TestProduceAlert_ProbabilityGate(t *testing.T) {
	sink := newSinkRecorder()
	s := newTestSimulator(sink, &reportRecorder{}, config.SimulationConfig{RandomAlertProb: 0}, 7)

	created, err := s.ProduceAlert(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, sink.alerts)

	s = newTestSimulator(sink, &reportRecorder{}, config.SimulationConfig{RandomAlertProb: 1}, 7)
	created, err = s.ProduceAlert(context.Background())
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, sink.alerts, 1)

	alert := sink.alerts[0]
	assert.Equal(t, models.AlertActive, alert.Status)
	assert.True(t, alert.Level.Valid())
	assert.Nil(t, alert.SensorID)
	assert.NotZero(t, alert.Latitude)
	assert.Contains(t, alert.Description, alert.Location)
}

func TestProduceReport_ProbabilityGate(t *testing.T) {
	reports := &reportRecorder{}
	s := newTestSimulator(newSinkRecorder(), reports, config.SimulationConfig{RandomReportProb: 0}, 7)

	created, err := s.ProduceReport(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, reports.reports)

	s = newTestSimulator(newSinkRecorder(), reports, config.SimulationConfig{RandomReportProb: 1}, 7)
	created, err = s.ProduceReport(context.Background())
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, reports.reports, 1)

	report := reports.reports[0]
	assert.True(t, report.Type.Valid())
	assert.True(t, report.Priority.Valid())
	assert.NotEmpty(t, report.Title)
	assert.NotEmpty(t, report.Location)
	require.NotNil(t, report.CitizenName)
	require.NotNil(t, report.CitizenContact)
	assert.Contains(t, *report.CitizenContact, "@email.com")
	assert.NotContains(t, *report.CitizenContact, " ")
}
