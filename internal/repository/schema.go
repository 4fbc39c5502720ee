package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema 建表语句（IF NOT EXISTS，启动时执行）
// alerts.sensor_id 不加外键约束：删除传感器不级联删除告警，告警保留
// 原 sensor_id（软依赖）。
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sensors (
		sensor_id     TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		type          TEXT NOT NULL,
		latitude      DOUBLE PRECISION NOT NULL,
		longitude     DOUBLE PRECISION NOT NULL,
		location      TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'active',
		current_value DOUBLE PRECISION,
		unit          TEXT NOT NULL DEFAULT '',
		min_threshold DOUBLE PRECISION,
		max_threshold DOUBLE PRECISION,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_reading  TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		alert_id        TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL,
		level           TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'active',
		latitude        DOUBLE PRECISION NOT NULL,
		longitude       DOUBLE PRECISION NOT NULL,
		location        TEXT NOT NULL,
		sensor_id       TEXT,
		trigger_value   DOUBLE PRECISION,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		acknowledged_at TIMESTAMPTZ,
		resolved_at     TIMESTAMPTZ
	)`,
	// Partial unique index: the database-side guarantee behind
	// "at most one active alert per sensor".
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_one_active_per_sensor
		ON alerts (sensor_id) WHERE status = 'active' AND sensor_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_status_created
		ON alerts (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS population_reports (
		report_id       TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL,
		type            TEXT NOT NULL,
		priority        TEXT NOT NULL DEFAULT 'medium',
		status          TEXT NOT NULL DEFAULT 'pending',
		latitude        DOUBLE PRECISION NOT NULL,
		longitude       DOUBLE PRECISION NOT NULL,
		location        TEXT NOT NULL,
		citizen_name    TEXT,
		citizen_contact TEXT,
		admin_notes     TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		resolved_at     TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_status_created
		ON population_reports (status, created_at DESC)`,
}

// EnsureSchema 创建缺失的表和索引
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
