package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"citysense/internal/models"
)

// Dashboard view payloads. These are pure read-side projections,
// recomputed on every call from current storage snapshots.

type OverviewCounts struct {
	TotalSensors   int `json:"totalSensors"`
	ActiveSensors  int `json:"activeSensors"`
	TotalAlerts    int `json:"totalAlerts"`
	CriticalAlerts int `json:"criticalAlerts"`
	HighAlerts     int `json:"highAlerts"`
	PendingReports int `json:"pendingReports"`
	TotalReports   int `json:"totalReports"`
}

type OverviewSensor struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Type         models.SensorType   `json:"type"`
	Status       models.SensorStatus `json:"status"`
	CurrentValue *float64            `json:"currentValue,omitempty"`
	Unit         string              `json:"unit"`
	Location     string              `json:"location"`
	Latitude     float64             `json:"latitude"`
	Longitude    float64             `json:"longitude"`
	LastReading  *time.Time          `json:"lastReading,omitempty"`
}

type OverviewAlert struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Level      models.AlertLevel `json:"level"`
	Location   string            `json:"location"`
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	CreatedAt  time.Time         `json:"createdAt"`
	SensorName string            `json:"sensorName,omitempty"`
}

type Overview struct {
	Overview OverviewCounts           `json:"overview"`
	Sensors  []OverviewSensor         `json:"sensors"`
	Alerts   []OverviewAlert          `json:"alerts"`
	Reports  *models.ReportStatistics `json:"populationReports"`
}

type MapSensor struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Type         models.SensorType   `json:"type"`
	Status       models.SensorStatus `json:"status"`
	Latitude     float64             `json:"latitude"`
	Longitude    float64             `json:"longitude"`
	CurrentValue *float64            `json:"currentValue,omitempty"`
	Unit         string              `json:"unit"`
}

type MapAlert struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Level     models.AlertLevel `json:"level"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	CreatedAt time.Time         `json:"createdAt"`
}

type MapReport struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Type      models.ReportType     `json:"type"`
	Priority  models.ReportPriority `json:"priority"`
	Latitude  float64               `json:"latitude"`
	Longitude float64               `json:"longitude"`
	CreatedAt time.Time             `json:"createdAt"`
}

type MapData struct {
	Sensors []MapSensor `json:"sensors"`
	Alerts  []MapAlert  `json:"alerts"`
	Reports []MapReport `json:"reports"`
}

type Analytics struct {
	Sensors struct {
		Total    int                         `json:"total"`
		ByType   map[models.SensorType]int   `json:"byType"`
		ByStatus map[models.SensorStatus]int `json:"byStatus"`
	} `json:"sensors"`
	Alerts struct {
		Total   int                       `json:"total"`
		ByLevel map[models.AlertLevel]int `json:"byLevel"`
		Recent  int                       `json:"recent"`
		ByDay   map[string]int            `json:"byDay"` // UTC YYYY-MM-DD, last 7 days
	} `json:"alerts"`
	Population *models.ReportStatistics `json:"population"`
}

// Dashboard computes the aggregate views backing the city dashboard.
type Dashboard struct {
	sensors SensorStore
	alerts  AlertStore
	reports ReportStore
	logger  *zap.Logger

	now func() time.Time
}

func NewDashboard(sensors SensorStore, alerts AlertStore, reports ReportStore, logger *zap.Logger) *Dashboard {
	return &Dashboard{
		sensors: sensors,
		alerts:  alerts,
		reports: reports,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (d *Dashboard) activeAlerts(ctx context.Context) ([]*models.Alert, error) {
	status := models.AlertActive
	return d.alerts.List(ctx, models.AlertFilters{Status: &status})
}

// GetOverview returns headline counts, the sensor fleet and the active
// alert feed.
func (d *Dashboard) GetOverview(ctx context.Context) (*Overview, error) {
	sensors, err := d.sensors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}
	alerts, err := d.activeAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	stats, err := d.reports.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load report statistics: %w", err)
	}

	out := &Overview{Reports: stats}
	out.Overview.TotalSensors = len(sensors)
	out.Overview.TotalAlerts = len(alerts)
	out.Overview.PendingReports = stats.ByStatus.Pending
	out.Overview.TotalReports = stats.Total

	sensorNames := make(map[string]string, len(sensors))
	out.Sensors = make([]OverviewSensor, 0, len(sensors))
	for _, s := range sensors {
		sensorNames[s.ID] = s.Name
		if s.Status == models.SensorActive {
			out.Overview.ActiveSensors++
		}
		out.Sensors = append(out.Sensors, OverviewSensor{
			ID: s.ID, Name: s.Name, Type: s.Type, Status: s.Status,
			CurrentValue: s.CurrentValue, Unit: s.Unit, Location: s.Location,
			Latitude: s.Latitude, Longitude: s.Longitude, LastReading: s.LastReading,
		})
	}

	out.Alerts = make([]OverviewAlert, 0, len(alerts))
	for _, a := range alerts {
		switch a.Level {
		case models.AlertCritical:
			out.Overview.CriticalAlerts++
		case models.AlertHigh:
			out.Overview.HighAlerts++
		}
		entry := OverviewAlert{
			ID: a.ID, Title: a.Title, Level: a.Level, Location: a.Location,
			Latitude: a.Latitude, Longitude: a.Longitude, CreatedAt: a.CreatedAt,
		}
		if a.SensorID != nil {
			entry.SensorName = sensorNames[*a.SensorID]
		}
		out.Alerts = append(out.Alerts, entry)
	}

	return out, nil
}

// GetMapData returns the flattened plotting payload: every sensor,
// every active alert and every pending report.
func (d *Dashboard) GetMapData(ctx context.Context) (*MapData, error) {
	sensors, err := d.sensors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}
	alerts, err := d.activeAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	pending := models.ReportPending
	reports, err := d.reports.List(ctx, models.ReportFilters{Status: &pending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reports: %w", err)
	}

	out := &MapData{
		Sensors: make([]MapSensor, 0, len(sensors)),
		Alerts:  make([]MapAlert, 0, len(alerts)),
		Reports: make([]MapReport, 0, len(reports)),
	}
	for _, s := range sensors {
		out.Sensors = append(out.Sensors, MapSensor{
			ID: s.ID, Name: s.Name, Type: s.Type, Status: s.Status,
			Latitude: s.Latitude, Longitude: s.Longitude,
			CurrentValue: s.CurrentValue, Unit: s.Unit,
		})
	}
	for _, a := range alerts {
		out.Alerts = append(out.Alerts, MapAlert{
			ID: a.ID, Title: a.Title, Level: a.Level,
			Latitude: a.Latitude, Longitude: a.Longitude, CreatedAt: a.CreatedAt,
		})
	}
	for _, r := range reports {
		out.Reports = append(out.Reports, MapReport{
			ID: r.ID, Title: r.Title, Type: r.Type, Priority: r.Priority,
			Latitude: r.Latitude, Longitude: r.Longitude, CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// GetAnalytics returns grouped counts plus the 7-day alert histogram.
// Day buckets use the alert's UTC calendar date.
func (d *Dashboard) GetAnalytics(ctx context.Context) (*Analytics, error) {
	sensors, err := d.sensors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}
	alerts, err := d.alerts.List(ctx, models.AlertFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	stats, err := d.reports.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load report statistics: %w", err)
	}

	out := &Analytics{Population: stats}
	out.Sensors.Total = len(sensors)
	out.Sensors.ByType = make(map[models.SensorType]int)
	out.Sensors.ByStatus = make(map[models.SensorStatus]int)
	for _, s := range sensors {
		out.Sensors.ByType[s.Type]++
		out.Sensors.ByStatus[s.Status]++
	}

	cutoff := d.now().AddDate(0, 0, -7)
	out.Alerts.Total = len(alerts)
	out.Alerts.ByLevel = make(map[models.AlertLevel]int)
	out.Alerts.ByDay = make(map[string]int)
	for _, a := range alerts {
		out.Alerts.ByLevel[a.Level]++
		if !a.CreatedAt.Before(cutoff) {
			out.Alerts.Recent++
			out.Alerts.ByDay[a.CreatedAt.UTC().Format("2006-01-02")]++
		}
	}

	return out, nil
}
