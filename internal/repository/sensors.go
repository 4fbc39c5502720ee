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

// SensorsRepository 传感器仓库（对应 sensors 表）
type SensorsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSensorsRepository 创建传感器仓库
func NewSensorsRepository(db *sql.DB, logger *zap.Logger) *SensorsRepository {
	return &SensorsRepository{
		db:     db,
		logger: logger,
	}
}

const sensorColumns = `
	sensor_id,
	name,
	type,
	latitude,
	longitude,
	location,
	status,
	current_value,
	unit,
	min_threshold,
	max_threshold,
	created_at,
	last_reading
`

func scanSensor(row interface{ Scan(...interface{}) error }) (*models.Sensor, error) {
	var s models.Sensor
	var currentValue, minThreshold, maxThreshold sql.NullFloat64
	var lastReading sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Type,
		&s.Latitude,
		&s.Longitude,
		&s.Location,
		&s.Status,
		&currentValue,
		&s.Unit,
		&minThreshold,
		&maxThreshold,
		&s.CreatedAt,
		&lastReading,
	)
	if err != nil {
		return nil, err
	}

	if currentValue.Valid {
		s.CurrentValue = &currentValue.Float64
	}
	if minThreshold.Valid {
		s.MinThreshold = &minThreshold.Float64
	}
	if maxThreshold.Valid {
		s.MaxThreshold = &maxThreshold.Float64
	}
	if lastReading.Valid {
		s.LastReading = &lastReading.Time
	}

	return &s, nil
}

// List 返回全部传感器（按创建时间倒序）
func (r *SensorsRepository) List(ctx context.Context) ([]*models.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}
	defer rows.Close()

	var sensors []*models.Sensor
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor: %w", err)
		}
		sensors = append(sensors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensors: %w", err)
	}

	return sensors, nil
}

// ListByStatus 按状态返回传感器
func (r *SensorsRepository) ListByStatus(ctx context.Context, status models.SensorStatus) ([]*models.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE status = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensors by status: %w", err)
	}
	defer rows.Close()

	var sensors []*models.Sensor
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor: %w", err)
		}
		sensors = append(sensors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sensors: %w", err)
	}

	return sensors, nil
}

// Get 根据 sensor_id 获取单个传感器
func (r *SensorsRepository) Get(ctx context.Context, id string) (*models.Sensor, error) {
	if id == "" {
		return nil, fmt.Errorf("sensor id is required: %w", models.ErrInvalidInput)
	}

	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE sensor_id = $1`

	s, err := scanSensor(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sensor %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sensor: %w", err)
	}

	return s, nil
}

// Create 创建传感器（缺省填充 ID / 状态 / 创建时间）
func (r *SensorsRepository) Create(ctx context.Context, sensor *models.Sensor) error {
	if sensor == nil {
		return fmt.Errorf("sensor is required: %w", models.ErrInvalidInput)
	}
	if sensor.Name == "" || !sensor.Type.Valid() {
		return fmt.Errorf("sensor name and type are required: %w", models.ErrInvalidInput)
	}

	if sensor.ID == "" {
		sensor.ID = uuid.New().String()
	}
	if sensor.Status == "" {
		sensor.Status = models.SensorActive
	}
	if sensor.CreatedAt.IsZero() {
		sensor.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sensors (
			sensor_id, name, type, latitude, longitude, location,
			status, current_value, unit, min_threshold, max_threshold,
			created_at, last_reading
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		sensor.ID,
		sensor.Name,
		sensor.Type,
		sensor.Latitude,
		sensor.Longitude,
		sensor.Location,
		sensor.Status,
		sensor.CurrentValue,
		sensor.Unit,
		sensor.MinThreshold,
		sensor.MaxThreshold,
		sensor.CreatedAt,
		sensor.LastReading,
	)
	if err != nil {
		return fmt.Errorf("failed to create sensor: %w", err)
	}

	return nil
}

// Update 部分更新传感器（nil 字段不更新）
func (r *SensorsRepository) Update(ctx context.Context, id string, patch *models.SensorPatch) error {
	if id == "" {
		return fmt.Errorf("sensor id is required: %w", models.ErrInvalidInput)
	}
	if patch.Empty() {
		return fmt.Errorf("update patch cannot be empty: %w", models.ErrInvalidInput)
	}

	setParts := []string{}
	args := []interface{}{}
	argN := 1

	add := func(column string, value interface{}) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, argN))
		args = append(args, value)
		argN++
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return fmt.Errorf("invalid sensor type %q: %w", *patch.Type, models.ErrInvalidInput)
		}
		add("type", *patch.Type)
	}
	if patch.Latitude != nil {
		add("latitude", *patch.Latitude)
	}
	if patch.Longitude != nil {
		add("longitude", *patch.Longitude)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return fmt.Errorf("invalid sensor status %q: %w", *patch.Status, models.ErrInvalidInput)
		}
		add("status", *patch.Status)
	}
	if patch.CurrentValue != nil {
		add("current_value", *patch.CurrentValue)
	}
	if patch.Unit != nil {
		add("unit", *patch.Unit)
	}
	if patch.MinThreshold != nil {
		add("min_threshold", *patch.MinThreshold)
	}
	if patch.MaxThreshold != nil {
		add("max_threshold", *patch.MaxThreshold)
	}
	if patch.LastReading != nil {
		add("last_reading", *patch.LastReading)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE sensors SET %s WHERE sensor_id = $%d`,
		strings.Join(setParts, ", "), argN)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update sensor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("sensor %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// UpdateReading 写入一次读数（current_value + last_reading）
func (r *SensorsRepository) UpdateReading(ctx context.Context, id string, value float64, ts time.Time) error {
	if id == "" {
		return fmt.Errorf("sensor id is required: %w", models.ErrInvalidInput)
	}

	query := `UPDATE sensors SET current_value = $1, last_reading = $2 WHERE sensor_id = $3`

	result, err := r.db.ExecContext(ctx, query, value, ts, id)
	if err != nil {
		return fmt.Errorf("failed to update sensor reading: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("sensor %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// Delete 删除传感器。不级联删除告警：历史告警保留其 sensor_id。
func (r *SensorsRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("sensor id is required: %w", models.ErrInvalidInput)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM sensors WHERE sensor_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sensor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("sensor %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// Count 传感器总数
func (r *SensorsRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensors`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sensors: %w", err)
	}
	return count, nil
}
