package models

import (
	"time"
)

// SensorType 传感器类型（closed set）
type SensorType string

const (
	SensorTemperature SensorType = "temperature"
	SensorHumidity    SensorType = "humidity"
	SensorAirQuality  SensorType = "air_quality"
	SensorNoise       SensorType = "noise"
	SensorTraffic     SensorType = "traffic"
	SensorFlood       SensorType = "flood"
	SensorEarthquake  SensorType = "earthquake"
)

// SensorTypes lists every valid sensor type.
var SensorTypes = []SensorType{
	SensorTemperature,
	SensorHumidity,
	SensorAirQuality,
	SensorNoise,
	SensorTraffic,
	SensorFlood,
	SensorEarthquake,
}

// Valid reports whether t is a known sensor type.
func (t SensorType) Valid() bool {
	for _, known := range SensorTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SensorStatus 传感器状态
type SensorStatus string

const (
	SensorActive      SensorStatus = "active"
	SensorInactive    SensorStatus = "inactive"
	SensorMaintenance SensorStatus = "maintenance"
	SensorError       SensorStatus = "error"
)

// Valid reports whether s is a known sensor status.
func (s SensorStatus) Valid() bool {
	switch s {
	case SensorActive, SensorInactive, SensorMaintenance, SensorError:
		return true
	}
	return false
}

// Sensor 传感器实体（对应 sensors 表）
type Sensor struct {
	ID           string       `json:"id" db:"sensor_id"`
	Name         string       `json:"name" db:"name"`
	Type         SensorType   `json:"type" db:"type"`
	Latitude     float64      `json:"latitude" db:"latitude"`
	Longitude    float64      `json:"longitude" db:"longitude"`
	Location     string       `json:"location" db:"location"`
	Status       SensorStatus `json:"status" db:"status"`
	CurrentValue *float64     `json:"currentValue,omitempty" db:"current_value"`
	Unit         string       `json:"unit" db:"unit"`
	MinThreshold *float64     `json:"minThreshold,omitempty" db:"min_threshold"`
	MaxThreshold *float64     `json:"maxThreshold,omitempty" db:"max_threshold"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	LastReading  *time.Time   `json:"lastReading,omitempty" db:"last_reading"`
}

// SensorPatch 传感器部分更新（nil 字段不更新）
type SensorPatch struct {
	Name         *string       `json:"name,omitempty"`
	Type         *SensorType   `json:"type,omitempty"`
	Latitude     *float64      `json:"latitude,omitempty"`
	Longitude    *float64      `json:"longitude,omitempty"`
	Location     *string       `json:"location,omitempty"`
	Status       *SensorStatus `json:"status,omitempty"`
	CurrentValue *float64      `json:"currentValue,omitempty"`
	Unit         *string       `json:"unit,omitempty"`
	MinThreshold *float64      `json:"minThreshold,omitempty"`
	MaxThreshold *float64      `json:"maxThreshold,omitempty"`
	LastReading  *time.Time    `json:"lastReading,omitempty"`
}

// Empty reports whether the patch carries no updates at all.
func (p *SensorPatch) Empty() bool {
	return p == nil || (p.Name == nil && p.Type == nil && p.Latitude == nil &&
		p.Longitude == nil && p.Location == nil && p.Status == nil &&
		p.CurrentValue == nil && p.Unit == nil && p.MinThreshold == nil &&
		p.MaxThreshold == nil && p.LastReading == nil)
}
