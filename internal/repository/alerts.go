package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"citysense/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// AlertsRepository 告警仓库（对应 alerts 表）
type AlertsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertsRepository 创建告警仓库
func NewAlertsRepository(db *sql.DB, logger *zap.Logger) *AlertsRepository {
	return &AlertsRepository{
		db:     db,
		logger: logger,
	}
}

const alertColumns = `
	alert_id,
	title,
	description,
	level,
	status,
	latitude,
	longitude,
	location,
	sensor_id,
	trigger_value,
	created_at,
	acknowledged_at,
	resolved_at
`

func scanAlert(row interface{ Scan(...interface{}) error }) (*models.Alert, error) {
	var a models.Alert
	var sensorID sql.NullString
	var triggerValue sql.NullFloat64
	var acknowledgedAt, resolvedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Level,
		&a.Status,
		&a.Latitude,
		&a.Longitude,
		&a.Location,
		&sensorID,
		&triggerValue,
		&a.CreatedAt,
		&acknowledgedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if sensorID.Valid {
		a.SensorID = &sensorID.String
	}
	if triggerValue.Valid {
		a.TriggerValue = &triggerValue.Float64
	}
	if acknowledgedAt.Valid {
		a.AcknowledgedAt = &acknowledgedAt.Time
	}
	if resolvedAt.Valid {
		a.ResolvedAt = &resolvedAt.Time
	}

	return &a, nil
}

// List 按过滤条件返回告警（按创建时间倒序）
func (r *AlertsRepository) List(ctx context.Context, filters models.AlertFilters) ([]*models.Alert, error) {
	where := []string{}
	args := []interface{}{}
	argN := 1

	if filters.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argN))
		args = append(args, *filters.Status)
		argN++
	}
	if filters.Level != nil {
		where = append(where, fmt.Sprintf("level = $%d", argN))
		args = append(args, *filters.Level)
		argN++
	}
	if filters.SensorID != nil {
		where = append(where, fmt.Sprintf("sensor_id = $%d", argN))
		args = append(args, *filters.SensorID)
		argN++
	}
	if filters.Since != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argN))
		args = append(args, *filters.Since)
		argN++
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

// Get 根据 alert_id 获取单个告警
func (r *AlertsRepository) Get(ctx context.Context, id string) (*models.Alert, error) {
	if id == "" {
		return nil, fmt.Errorf("alert id is required: %w", models.ErrInvalidInput)
	}

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE alert_id = $1`

	a, err := scanAlert(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("alert %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return a, nil
}

// Create 无条件创建告警（模拟产生的城市事件告警不关联传感器）
func (r *AlertsRepository) Create(ctx context.Context, alert *models.Alert) error {
	if alert == nil {
		return fmt.Errorf("alert is required: %w", models.ErrInvalidInput)
	}

	prepareAlert(alert)

	query := `
		INSERT INTO alerts (
			alert_id, title, description, level, status,
			latitude, longitude, location, sensor_id, trigger_value,
			created_at, acknowledged_at, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.Title,
		alert.Description,
		alert.Level,
		alert.Status,
		alert.Latitude,
		alert.Longitude,
		alert.Location,
		alert.SensorID,
		alert.TriggerValue,
		alert.CreatedAt,
		alert.AcknowledgedAt,
		alert.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// CreateIfNoActive 条件创建：仅当该传感器当前没有 active 告警时插入。
// 单条原子语句消除 check-then-create 竞态；配合 partial unique index，
// 并发下即使两条同时通过 NOT EXISTS，也只有一条能落库。
// 返回是否真正插入。
func (r *AlertsRepository) CreateIfNoActive(ctx context.Context, alert *models.Alert) (bool, error) {
	if alert == nil {
		return false, fmt.Errorf("alert is required: %w", models.ErrInvalidInput)
	}
	if alert.SensorID == nil || *alert.SensorID == "" {
		return false, fmt.Errorf("sensor id is required for conditional insert: %w", models.ErrInvalidInput)
	}

	prepareAlert(alert)

	query := `
		INSERT INTO alerts (
			alert_id, title, description, level, status,
			latitude, longitude, location, sensor_id, trigger_value,
			created_at, acknowledged_at, resolved_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		WHERE NOT EXISTS (
			SELECT 1 FROM alerts WHERE sensor_id = $9 AND status = 'active'
		)
	`

	result, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.Title,
		alert.Description,
		alert.Level,
		alert.Status,
		alert.Latitude,
		alert.Longitude,
		alert.Location,
		*alert.SensorID,
		alert.TriggerValue,
		alert.CreatedAt,
		alert.AcknowledgedAt,
		alert.ResolvedAt,
	)
	if err != nil {
		// The partial unique index turns the losing side of a race into a
		// unique violation; treat it the same as the NOT EXISTS miss.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return false, nil
		}
		return false, fmt.Errorf("failed to create alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// FindActiveBySensor 查找传感器当前的 active 告警（不存在返回 nil）
func (r *AlertsRepository) FindActiveBySensor(ctx context.Context, sensorID string) (*models.Alert, error) {
	if sensorID == "" {
		return nil, fmt.Errorf("sensor id is required: %w", models.ErrInvalidInput)
	}

	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE sensor_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`

	a, err := scanAlert(r.db.QueryRowContext(ctx, query, sensorID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active alert: %w", err)
	}

	return a, nil
}

// Acknowledge 确认告警：status=acknowledged，写入确认时间。
// 重复确认允许，时间戳被覆盖。
func (r *AlertsRepository) Acknowledge(ctx context.Context, id string, at time.Time) error {
	return r.transition(ctx, id, "acknowledged", "acknowledged_at", at)
}

// Resolve 解决告警：status=resolved，写入解决时间。
func (r *AlertsRepository) Resolve(ctx context.Context, id string, at time.Time) error {
	return r.transition(ctx, id, "resolved", "resolved_at", at)
}

func (r *AlertsRepository) transition(ctx context.Context, id, status, timestampColumn string, at time.Time) error {
	if id == "" {
		return fmt.Errorf("alert id is required: %w", models.ErrInvalidInput)
	}

	query := fmt.Sprintf(`UPDATE alerts SET status = $1, %s = $2 WHERE alert_id = $3`, timestampColumn)

	result, err := r.db.ExecContext(ctx, query, status, at, id)
	if err != nil {
		return fmt.Errorf("failed to %s alert: %w", status, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// Delete 删除告警
func (r *AlertsRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("alert id is required: %w", models.ErrInvalidInput)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE alert_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("alert %s: %w", id, models.ErrNotFound)
	}

	return nil
}

func prepareAlert(alert *models.Alert) {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Status == "" {
		alert.Status = models.AlertActive
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
}
