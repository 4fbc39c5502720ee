// Package service holds the engine's business logic: sensor registry,
// alert lifecycle, report handling and dashboard aggregation. Each
// service talks to storage through a narrow interface so tests can run
// against in-memory fakes.
package service

import (
	"context"
	"time"

	"citysense/internal/models"
)

// SensorStore is the persistence surface the registry needs.
type SensorStore interface {
	List(ctx context.Context) ([]*models.Sensor, error)
	ListByStatus(ctx context.Context, status models.SensorStatus) ([]*models.Sensor, error)
	Get(ctx context.Context, id string) (*models.Sensor, error)
	Create(ctx context.Context, sensor *models.Sensor) error
	Update(ctx context.Context, id string, patch *models.SensorPatch) error
	UpdateReading(ctx context.Context, id string, value float64, ts time.Time) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// AlertStore is the persistence surface the alert manager needs.
// CreateIfNoActive must be atomic with respect to the
// one-active-alert-per-sensor constraint.
type AlertStore interface {
	List(ctx context.Context, filters models.AlertFilters) ([]*models.Alert, error)
	Get(ctx context.Context, id string) (*models.Alert, error)
	Create(ctx context.Context, alert *models.Alert) error
	CreateIfNoActive(ctx context.Context, alert *models.Alert) (bool, error)
	FindActiveBySensor(ctx context.Context, sensorID string) (*models.Alert, error)
	Acknowledge(ctx context.Context, id string, at time.Time) error
	Resolve(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// ReportStore is the persistence surface the report service needs.
type ReportStore interface {
	List(ctx context.Context, filters models.ReportFilters) ([]*models.PopulationReport, error)
	Get(ctx context.Context, id string) (*models.PopulationReport, error)
	Create(ctx context.Context, report *models.PopulationReport) error
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, adminNotes *string) error
	Delete(ctx context.Context, id string) error
	Statistics(ctx context.Context) (*models.ReportStatistics, error)
}
