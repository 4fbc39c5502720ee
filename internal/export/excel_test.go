package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"citysense/internal/models"
)

func TestGenerateAlertExport(t *testing.T) {
	sensorID := "sensor-1"
	trigger := 130.5
	acked := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	alerts := []*models.Alert{
		{
			ID: "a-1", Title: "Alerta - Sensor Temperatura Centro",
			Level: models.AlertHigh, Status: models.AlertAcknowledged,
			Location: "Centro de São Paulo", Latitude: -23.5505, Longitude: -46.6333,
			SensorID: &sensorID, TriggerValue: &trigger,
			CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), AcknowledgedAt: &acked,
		},
		{
			ID: "a-2", Title: "Queda de Energia",
			Level: models.AlertMedium, Status: models.AlertActive,
			Location: "Vila Madalena", CreatedAt: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
		},
	}

	data, err := GenerateAlertExport(alerts)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Alerts")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 alerts

	assert.Equal(t, AlertExportHeader, rows[0][:len(AlertExportHeader)])
	assert.Equal(t, "a-1", rows[1][0])
	assert.Equal(t, "high", rows[1][2])
	assert.Equal(t, "sensor-1", rows[1][7])
	assert.Equal(t, "2025-06-01 12:00:00", rows[1][9])
	assert.Equal(t, "2025-06-01 13:00:00", rows[1][10])
	// the unreferenced sensor column stays blank
	assert.Equal(t, "Queda de Energia", rows[2][1])
}

func TestGenerateAlertExport_Empty(t *testing.T) {
	data, err := GenerateAlertExport(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Alerts")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}

func TestGenerateReportExport(t *testing.T) {
	citizen := "Maria Santos"
	resolved := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	reports := []*models.PopulationReport{
		{
			ID: "r-1", Title: "Buraco na rua",
			Type: models.ReportInfrastructure, Priority: models.PriorityMedium,
			Status: models.ReportResolved, Location: "Rua Augusta, Centro",
			CitizenName: &citizen,
			CreatedAt:   time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
			ResolvedAt:  &resolved,
		},
	}

	data, err := GenerateReportExport(reports)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Population Reports")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Buraco na rua", rows[1][1])
	assert.Equal(t, "infrastructure", rows[1][2])
	assert.Equal(t, "Maria Santos", rows[1][6])
	assert.Equal(t, "2025-06-03 10:00:00", rows[1][8])
}
