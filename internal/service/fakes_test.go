package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"citysense/internal/models"
)

// In-memory stores used across the service tests. They mirror the SQL
// repositories' observable behavior: sentinel errors, defaulting and
// the atomic one-active-alert-per-sensor insert.

type fakeSensorStore struct {
	sensors map[string]*models.Sensor
	order   []string
	err     error // injected dependency failure
}

func newFakeSensorStore() *fakeSensorStore {
	return &fakeSensorStore{sensors: make(map[string]*models.Sensor)}
}

func (f *fakeSensorStore) add(s *models.Sensor) *models.Sensor {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Status == "" {
		s.Status = models.SensorActive
	}
	f.sensors[s.ID] = s
	f.order = append(f.order, s.ID)
	return s
}

func (f *fakeSensorStore) List(ctx context.Context) ([]*models.Sensor, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Sensor, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.sensors[id])
	}
	return out, nil
}

func (f *fakeSensorStore) ListByStatus(ctx context.Context, status models.SensorStatus) ([]*models.Sensor, error) {
	all, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, s := range all {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSensorStore) Get(ctx context.Context, id string) (*models.Sensor, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sensors[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

func (f *fakeSensorStore) Create(ctx context.Context, sensor *models.Sensor) error {
	if f.err != nil {
		return f.err
	}
	f.add(sensor)
	return nil
}

func (f *fakeSensorStore) Update(ctx context.Context, id string, patch *models.SensorPatch) error {
	if f.err != nil {
		return f.err
	}
	s, ok := f.sensors[id]
	if !ok {
		return models.ErrNotFound
	}
	if patch.Empty() {
		return models.ErrInvalidInput
	}
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Status != nil {
		s.Status = *patch.Status
	}
	if patch.CurrentValue != nil {
		s.CurrentValue = patch.CurrentValue
	}
	return nil
}

func (f *fakeSensorStore) UpdateReading(ctx context.Context, id string, value float64, ts time.Time) error {
	if f.err != nil {
		return f.err
	}
	s, ok := f.sensors[id]
	if !ok {
		return models.ErrNotFound
	}
	s.CurrentValue = &value
	s.LastReading = &ts
	return nil
}

func (f *fakeSensorStore) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.sensors[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.sensors, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSensorStore) Count(ctx context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.sensors), nil
}

type fakeAlertStore struct {
	alerts map[string]*models.Alert
	err    error
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: make(map[string]*models.Alert)}
}

func (f *fakeAlertStore) List(ctx context.Context, filters models.AlertFilters) ([]*models.Alert, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Alert, 0, len(f.alerts))
	for _, a := range f.alerts {
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		if filters.Level != nil && a.Level != *filters.Level {
			continue
		}
		if filters.SensorID != nil && (a.SensorID == nil || *a.SensorID != *filters.SensorID) {
			continue
		}
		if filters.Since != nil && a.CreatedAt.Before(*filters.Since) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Get returns a copy, matching the SQL repository's row-scan value
// semantics: later transitions must not mutate an already-returned row.
func (f *fakeAlertStore) Get(ctx context.Context, id string) (*models.Alert, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.alerts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAlertStore) Create(ctx context.Context, alert *models.Alert) error {
	if f.err != nil {
		return f.err
	}
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Status == "" {
		alert.Status = models.AlertActive
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	f.alerts[alert.ID] = alert
	return nil
}

func (f *fakeAlertStore) CreateIfNoActive(ctx context.Context, alert *models.Alert) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if alert.SensorID != nil {
		existing, _ := f.FindActiveBySensor(ctx, *alert.SensorID)
		if existing != nil {
			return false, nil
		}
	}
	return true, f.Create(ctx, alert)
}

func (f *fakeAlertStore) FindActiveBySensor(ctx context.Context, sensorID string) (*models.Alert, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.alerts {
		if a.Status == models.AlertActive && a.SensorID != nil && *a.SensorID == sensorID {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAlertStore) Acknowledge(ctx context.Context, id string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	a, ok := f.alerts[id]
	if !ok {
		return models.ErrNotFound
	}
	a.Status = models.AlertAcknowledged
	a.AcknowledgedAt = &at
	return nil
}

func (f *fakeAlertStore) Resolve(ctx context.Context, id string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	a, ok := f.alerts[id]
	if !ok {
		return models.ErrNotFound
	}
	a.Status = models.AlertResolved
	a.ResolvedAt = &at
	return nil
}

func (f *fakeAlertStore) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.alerts[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.alerts, id)
	return nil
}

type fakeReportStore struct {
	reports map[string]*models.PopulationReport
	err     error
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{reports: make(map[string]*models.PopulationReport)}
}

func (f *fakeReportStore) List(ctx context.Context, filters models.ReportFilters) ([]*models.PopulationReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.PopulationReport, 0, len(f.reports))
	for _, r := range f.reports {
		if filters.Status != nil && r.Status != *filters.Status {
			continue
		}
		if filters.Type != nil && r.Type != *filters.Type {
			continue
		}
		if filters.Before != nil && !r.CreatedAt.Before(*filters.Before) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeReportStore) Get(ctx context.Context, id string) (*models.PopulationReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.reports[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r, nil
}

func (f *fakeReportStore) Create(ctx context.Context, report *models.PopulationReport) error {
	if f.err != nil {
		return f.err
	}
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.Status == "" {
		report.Status = models.ReportPending
	}
	if report.Priority == "" {
		report.Priority = models.PriorityMedium
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	f.reports[report.ID] = report
	return nil
}

func (f *fakeReportStore) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, adminNotes *string) error {
	r, err := f.Get(ctx, id)
	if err != nil {
		return err
	}
	r.Status = status
	if adminNotes != nil {
		r.AdminNotes = adminNotes
	}
	if status == models.ReportResolved {
		now := time.Now().UTC()
		r.ResolvedAt = &now
	}
	return nil
}

func (f *fakeReportStore) Delete(ctx context.Context, id string) error {
	if _, err := f.Get(ctx, id); err != nil {
		return err
	}
	delete(f.reports, id)
	return nil
}

func (f *fakeReportStore) Statistics(ctx context.Context) (*models.ReportStatistics, error) {
	if f.err != nil {
		return nil, f.err
	}
	stats := &models.ReportStatistics{
		ByType:     make(map[models.ReportType]int),
		ByPriority: make(map[models.ReportPriority]int),
	}
	for _, r := range f.reports {
		stats.Total++
		stats.ByType[r.Type]++
		stats.ByPriority[r.Priority]++
		switch r.Status {
		case models.ReportPending:
			stats.ByStatus.Pending++
		case models.ReportInProgress:
			stats.ByStatus.InProgress++
		case models.ReportResolved:
			stats.ByStatus.Resolved++
		case models.ReportRejected:
			stats.ByStatus.Rejected++
		}
	}
	return stats, nil
}
