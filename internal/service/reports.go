package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"citysense/internal/metrics"
	"citysense/internal/models"
)

// ReportService owns population reports: CRUD, aggregate statistics and
// the periodic status-aging pass.
type ReportService struct {
	reports ReportStore
	policy  AgingPolicy
	logger  *zap.Logger

	now func() time.Time
}

func NewReportService(reports ReportStore, policy AgingPolicy, logger *zap.Logger) *ReportService {
	return &ReportService{
		reports: reports,
		policy:  policy,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReportService) List(ctx context.Context, filters models.ReportFilters) ([]*models.PopulationReport, error) {
	return s.reports.List(ctx, filters)
}

func (s *ReportService) ListPending(ctx context.Context) ([]*models.PopulationReport, error) {
	status := models.ReportPending
	return s.reports.List(ctx, models.ReportFilters{Status: &status})
}

func (s *ReportService) Get(ctx context.Context, id string) (*models.PopulationReport, error) {
	if id == "" {
		return nil, fmt.Errorf("report id is required: %w", models.ErrInvalidInput)
	}
	return s.reports.Get(ctx, id)
}

func (s *ReportService) Create(ctx context.Context, report *models.PopulationReport) error {
	if err := s.reports.Create(ctx, report); err != nil {
		return err
	}
	s.logger.Info("population report filed",
		zap.String("reportId", report.ID),
		zap.String("type", string(report.Type)),
		zap.String("location", report.Location))
	return nil
}

func (s *ReportService) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, adminNotes *string) (*models.PopulationReport, error) {
	if id == "" {
		return nil, fmt.Errorf("report id is required: %w", models.ErrInvalidInput)
	}
	if err := s.reports.UpdateStatus(ctx, id, status, adminNotes); err != nil {
		return nil, err
	}
	return s.reports.Get(ctx, id)
}

func (s *ReportService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("report id is required: %w", models.ErrInvalidInput)
	}
	return s.reports.Delete(ctx, id)
}

func (s *ReportService) Statistics(ctx context.Context) (*models.ReportStatistics, error) {
	return s.reports.Statistics(ctx)
}

// AgeReports runs one aging pass: every pending and in_progress report
// is offered to the policy, which may advance its status. A failing
// report is logged and skipped. Returns the number of reports advanced.
func (s *ReportService) AgeReports(ctx context.Context) (int, error) {
	if s.policy == nil {
		return 0, nil
	}

	now := s.now()
	advanced := 0
	for _, status := range []models.ReportStatus{models.ReportPending, models.ReportInProgress} {
		st := status
		reports, err := s.reports.List(ctx, models.ReportFilters{Status: &st})
		if err != nil {
			return advanced, fmt.Errorf("failed to list %s reports for aging: %w", status, err)
		}
		for _, report := range reports {
			decision := s.policy.Decide(report.Status, now.Sub(report.CreatedAt))
			if decision == nil {
				continue
			}
			notes := decision.Notes
			if err := s.reports.UpdateStatus(ctx, report.ID, decision.Status, &notes); err != nil {
				s.logger.Error("failed to age report",
					zap.String("reportId", report.ID),
					zap.String("to", string(decision.Status)),
					zap.Error(err))
				continue
			}
			metrics.ReportsAgedTotal.WithLabelValues(string(decision.Status)).Inc()
			advanced++
		}
	}

	if advanced > 0 {
		s.logger.Info("report aging pass complete", zap.Int("advanced", advanced))
	}
	return advanced, nil
}
