package models

import (
	"time"
)

// AlertLevel 告警级别
type AlertLevel string

const (
	AlertLow      AlertLevel = "low"
	AlertMedium   AlertLevel = "medium"
	AlertHigh     AlertLevel = "high"
	AlertCritical AlertLevel = "critical"
)

// Valid reports whether l is a known alert level.
func (l AlertLevel) Valid() bool {
	switch l {
	case AlertLow, AlertMedium, AlertHigh, AlertCritical:
		return true
	}
	return false
}

// AlertStatus 告警状态（active → acknowledged → resolved，acknowledge 可选）
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// Valid reports whether s is a known alert status.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertActive, AlertAcknowledged, AlertResolved:
		return true
	}
	return false
}

// Alert 告警事件（对应 alerts 表）
// 位置和坐标在创建时从触发的传感器复制，之后不再跟随传感器变化。
type Alert struct {
	ID             string      `json:"id" db:"alert_id"`
	Title          string      `json:"title" db:"title"`
	Description    string      `json:"description" db:"description"`
	Level          AlertLevel  `json:"level" db:"level"`
	Status         AlertStatus `json:"status" db:"status"`
	Latitude       float64     `json:"latitude" db:"latitude"`
	Longitude      float64     `json:"longitude" db:"longitude"`
	Location       string      `json:"location" db:"location"`
	SensorID       *string     `json:"sensorId,omitempty" db:"sensor_id"`
	TriggerValue   *float64    `json:"triggerValue,omitempty" db:"trigger_value"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	AcknowledgedAt *time.Time  `json:"acknowledgedAt,omitempty" db:"acknowledged_at"`
	ResolvedAt     *time.Time  `json:"resolvedAt,omitempty" db:"resolved_at"`
}

// AlertFilters 告警查询过滤条件
type AlertFilters struct {
	Status   *AlertStatus
	Level    *AlertLevel
	SensorID *string
	Since    *time.Time
}
