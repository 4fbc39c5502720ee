package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"citysense/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockAlertsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *AlertsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewAlertsRepository(db, logger)

	return db, mock, repo
}

func alertRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"alert_id", "title", "description", "level", "status",
		"latitude", "longitude", "location", "sensor_id", "trigger_value",
		"created_at", "acknowledged_at", "resolved_at",
	})
}

func TestAlertsGet_Success(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	alertID := uuid.New().String()
	sensorID := uuid.New().String()
	now := time.Now()

	rows := alertRows().AddRow(
		alertID, "Alerta - Sensor Temperatura Centro", "above limit", "high", "active",
		-23.5505, -46.6333, "Centro de São Paulo", sensorID, 52.0,
		now, nil, nil,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(alertID).
		WillReturnRows(rows)

	alert, err := repo.Get(context.Background(), alertID)

	require.NoError(t, err)
	assert.Equal(t, alertID, alert.ID)
	assert.Equal(t, models.AlertHigh, alert.Level)
	assert.Equal(t, models.AlertActive, alert.Status)
	require.NotNil(t, alert.SensorID)
	assert.Equal(t, sensorID, *alert.SensorID)
	require.NotNil(t, alert.TriggerValue)
	assert.Equal(t, 52.0, *alert.TriggerValue)
	assert.Nil(t, alert.AcknowledgedAt)
	assert.Nil(t, alert.ResolvedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertsGet_NotFound(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	alertID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(alertID).
		WillReturnError(sql.ErrNoRows)

	alert, err := repo.Get(context.Background(), alertID)

	assert.Nil(t, alert)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertsList_StatusFilter(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	now := time.Now()
	rows := alertRows().
		AddRow(uuid.New().String(), "a1", "d", "critical", "active",
			0.0, 0.0, "loc", nil, nil, now, nil, nil).
		AddRow(uuid.New().String(), "a2", "d", "low", "active",
			0.0, 0.0, "loc", nil, nil, now.Add(-time.Hour), nil, nil)

	status := models.AlertActive
	mock.ExpectQuery(`SELECT(.|\n)*WHERE status = \$1(.|\n)*ORDER BY created_at DESC`).
		WithArgs(string(status)).
		WillReturnRows(rows)

	alerts, err := repo.List(context.Background(), models.AlertFilters{Status: &status})

	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Nil(t, alerts[0].SensorID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertsCreateIfNoActive_Inserted(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	sensorID := uuid.New().String()

	mock.ExpectExec(`INSERT INTO alerts(.|\n)*WHERE NOT EXISTS`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.CreateIfNoActive(context.Background(), &models.Alert{
		Title:    "Alerta - Sensor",
		Level:    models.AlertMedium,
		SensorID: &sensorID,
	})

	require.NoError(t, err)
	assert.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertsCreateIfNoActive_Suppressed(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	sensorID := uuid.New().String()

	// The NOT EXISTS guard filtered the insert out: zero rows affected.
	mock.ExpectExec(`INSERT INTO alerts(.|\n)*WHERE NOT EXISTS`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.CreateIfNoActive(context.Background(), &models.Alert{
		Title:    "Alerta - Sensor",
		Level:    models.AlertMedium,
		SensorID: &sensorID,
	})

	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertsCreateIfNoActive_UniqueRaceLoser(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	sensorID := uuid.New().String()

	// Losing side of a concurrent raise: the partial unique index fires.
	mock.ExpectExec(`INSERT INTO alerts(.|\n)*WHERE NOT EXISTS`).
		WillReturnError(&pq.Error{Code: "23505"})

	inserted, err := repo.CreateIfNoActive(context.Background(), &models.Alert{
		Title:    "Alerta - Sensor",
		Level:    models.AlertMedium,
		SensorID: &sensorID,
	})

	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertsCreateIfNoActive_RequiresSensor(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	_, err := repo.CreateIfNoActive(context.Background(), &models.Alert{Title: "no sensor"})

	assert.ErrorIs(t, err, models.ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertsFindActiveBySensor_None(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	sensorID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(sensorID).
		WillReturnError(sql.ErrNoRows)

	alert, err := repo.FindActiveBySensor(context.Background(), sensorID)

	require.NoError(t, err)
	assert.Nil(t, alert)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertsAcknowledge(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	alertID := uuid.New().String()
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE alerts SET status = \$1, acknowledged_at = \$2`).
		WithArgs("acknowledged", at, alertID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Acknowledge(context.Background(), alertID, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertsResolve_NotFound(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	alertID := uuid.New().String()
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE alerts SET status = \$1, resolved_at = \$2`).
		WithArgs("resolved", at, alertID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Resolve(context.Background(), alertID, at)

	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertsDelete(t *testing.T) {
	db, mock, repo := setupMockAlertsDB(t)
	defer db.Close()

	alertID := uuid.New().String()

	mock.ExpectExec(`DELETE FROM alerts`).
		WithArgs(alertID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), alertID))
	require.NoError(t, mock.ExpectationsWereMet())
}
