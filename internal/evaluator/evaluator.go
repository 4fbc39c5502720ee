// Package evaluator classifies sensor readings against configured bounds.
// Evaluation is a pure function of sensor state; persistence and alert
// dedup live in the alert manager.
package evaluator

import (
	"citysense/internal/models"
)

// Breach 越限检测结果
type Breach struct {
	// Level is the classified severity.
	Level models.AlertLevel
	// TriggerValue is the reading that caused the breach.
	TriggerValue float64
	// Exceeded is true for an above-max breach, false for below-min.
	Exceeded bool
	// Threshold is the violated bound (max when Exceeded, min otherwise).
	Threshold float64
}

// Evaluate inspects the sensor's current value against its configured
// thresholds and returns the breach, or nil when the sensor is in range.
//
// A sensor with no current value or no max threshold is never evaluated
// (not an error). The max threshold is required even for the below-min
// check because severity is always classified against it; see ClassifyLevel.
func Evaluate(sensor *models.Sensor) *Breach {
	if sensor == nil || sensor.CurrentValue == nil || sensor.MaxThreshold == nil {
		return nil
	}

	value := *sensor.CurrentValue
	max := *sensor.MaxThreshold

	if value > max {
		return &Breach{
			Level:        ClassifyLevel(value, max),
			TriggerValue: value,
			Exceeded:     true,
			Threshold:    max,
		}
	}

	if sensor.MinThreshold != nil && value < *sensor.MinThreshold {
		return &Breach{
			Level:        ClassifyLevel(value, max),
			TriggerValue: value,
			Exceeded:     false,
			Threshold:    *sensor.MinThreshold,
		}
	}

	return nil
}

// ClassifyLevel maps the reading-to-max-threshold ratio onto a severity.
//
// Below-min breaches are deliberately classified against the MAX threshold
// as well, keeping parity with the historical alert stream; they therefore
// always come out "low" in practice. Changing this to a min-relative ratio
// would reclassify existing data, so it stays as is.
func ClassifyLevel(value, maxThreshold float64) models.AlertLevel {
	ratio := value / maxThreshold * 100

	switch {
	case ratio >= 150:
		return models.AlertCritical
	case ratio >= 125:
		return models.AlertHigh
	case ratio >= 110:
		return models.AlertMedium
	default:
		return models.AlertLow
	}
}
