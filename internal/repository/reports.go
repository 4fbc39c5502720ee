package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"citysense/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportsRepository 市民上报仓库（对应 population_reports 表）
type ReportsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportsRepository 创建市民上报仓库
func NewReportsRepository(db *sql.DB, logger *zap.Logger) *ReportsRepository {
	return &ReportsRepository{
		db:     db,
		logger: logger,
	}
}

const reportColumns = `
	report_id,
	title,
	description,
	type,
	priority,
	status,
	latitude,
	longitude,
	location,
	citizen_name,
	citizen_contact,
	admin_notes,
	created_at,
	resolved_at
`

func scanReport(row interface{ Scan(...interface{}) error }) (*models.PopulationReport, error) {
	var p models.PopulationReport
	var citizenName, citizenContact, adminNotes sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Type,
		&p.Priority,
		&p.Status,
		&p.Latitude,
		&p.Longitude,
		&p.Location,
		&citizenName,
		&citizenContact,
		&adminNotes,
		&p.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if citizenName.Valid {
		p.CitizenName = &citizenName.String
	}
	if citizenContact.Valid {
		p.CitizenContact = &citizenContact.String
	}
	if adminNotes.Valid {
		p.AdminNotes = &adminNotes.String
	}
	if resolvedAt.Valid {
		p.ResolvedAt = &resolvedAt.Time
	}

	return &p, nil
}

// List 按过滤条件返回上报（按创建时间倒序）
func (r *ReportsRepository) List(ctx context.Context, filters models.ReportFilters) ([]*models.PopulationReport, error) {
	where := []string{}
	args := []interface{}{}
	argN := 1

	if filters.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argN))
		args = append(args, *filters.Status)
		argN++
	}
	if filters.Type != nil {
		where = append(where, fmt.Sprintf("type = $%d", argN))
		args = append(args, *filters.Type)
		argN++
	}
	if filters.Before != nil {
		where = append(where, fmt.Sprintf("created_at < $%d", argN))
		args = append(args, *filters.Before)
		argN++
	}

	query := `SELECT ` + reportColumns + ` FROM population_reports`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.PopulationReport
	for rows.Next() {
		p, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// Get 根据 report_id 获取单个上报
func (r *ReportsRepository) Get(ctx context.Context, id string) (*models.PopulationReport, error) {
	if id == "" {
		return nil, fmt.Errorf("report id is required: %w", models.ErrInvalidInput)
	}

	query := `SELECT ` + reportColumns + ` FROM population_reports WHERE report_id = $1`

	p, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return p, nil
}

// Create 创建上报（缺省填充 ID / 优先级 / 状态 / 创建时间）
func (r *ReportsRepository) Create(ctx context.Context, report *models.PopulationReport) error {
	if report == nil {
		return fmt.Errorf("report is required: %w", models.ErrInvalidInput)
	}
	if report.Title == "" || !report.Type.Valid() {
		return fmt.Errorf("report title and type are required: %w", models.ErrInvalidInput)
	}

	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.Priority == "" {
		report.Priority = models.PriorityMedium
	}
	if report.Status == "" {
		report.Status = models.ReportPending
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO population_reports (
			report_id, title, description, type, priority, status,
			latitude, longitude, location, citizen_name, citizen_contact,
			admin_notes, created_at, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.Title,
		report.Description,
		report.Type,
		report.Priority,
		report.Status,
		report.Latitude,
		report.Longitude,
		report.Location,
		report.CitizenName,
		report.CitizenContact,
		report.AdminNotes,
		report.CreatedAt,
		report.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// UpdateStatus 更新处理状态；resolved 时写入解决时间，可附带处理备注。
func (r *ReportsRepository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, adminNotes *string) error {
	if id == "" {
		return fmt.Errorf("report id is required: %w", models.ErrInvalidInput)
	}
	if !status.Valid() {
		return fmt.Errorf("invalid report status %q: %w", status, models.ErrInvalidInput)
	}

	setParts := []string{"status = $1"}
	args := []interface{}{status}
	argN := 2

	if adminNotes != nil {
		setParts = append(setParts, fmt.Sprintf("admin_notes = $%d", argN))
		args = append(args, *adminNotes)
		argN++
	}
	if status == models.ReportResolved {
		setParts = append(setParts, fmt.Sprintf("resolved_at = $%d", argN))
		args = append(args, time.Now().UTC())
		argN++
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE population_reports SET %s WHERE report_id = $%d`,
		strings.Join(setParts, ", "), argN)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// Delete 删除上报
func (r *ReportsRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("report id is required: %w", models.ErrInvalidInput)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM population_reports WHERE report_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// Statistics 统计：总数、按状态、按类型、按优先级分组计数
func (r *ReportsRepository) Statistics(ctx context.Context) (*models.ReportStatistics, error) {
	stats := &models.ReportStatistics{
		ByType:     make(map[models.ReportType]int),
		ByPriority: make(map[models.ReportPriority]int),
	}

	// 按状态计数（总数由各状态求和）
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM population_reports GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.ReportStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.Total += count
		switch status {
		case models.ReportPending:
			stats.ByStatus.Pending = count
		case models.ReportInProgress:
			stats.ByStatus.InProgress = count
		case models.ReportResolved:
			stats.ByStatus.Resolved = count
		case models.ReportRejected:
			stats.ByStatus.Rejected = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status counts: %w", err)
	}

	typeRows, err := r.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM population_reports GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports by type: %w", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var reportType models.ReportType
		var count int
		if err := typeRows.Scan(&reportType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.ByType[reportType] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate type counts: %w", err)
	}

	priorityRows, err := r.db.QueryContext(ctx,
		`SELECT priority, COUNT(*) FROM population_reports GROUP BY priority`)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports by priority: %w", err)
	}
	defer priorityRows.Close()

	for priorityRows.Next() {
		var priority models.ReportPriority
		var count int
		if err := priorityRows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("failed to scan priority count: %w", err)
		}
		stats.ByPriority[priority] = count
	}
	if err := priorityRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate priority counts: %w", err)
	}

	return stats, nil
}
