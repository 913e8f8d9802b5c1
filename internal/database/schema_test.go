package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/database/dbtest"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columnNames(t *testing.T, x *sqlx.DB) []string {
	t.Helper()
	var names []string
	require.NoError(t, x.Select(&names, `SELECT name FROM pragma_table_info('sensor_data')`))
	return names
}

func TestMigrateSeedsDefaults(t *testing.T) {
	db := dbtest.NewSQLite(t)
	x := db.GetDB()

	var count int
	require.NoError(t, x.Get(&count, `SELECT COUNT(*) FROM current_settings`))
	assert.Equal(t, len(models.DefaultSettings), count)

	var desc string
	require.NoError(t, x.Get(&desc, `SELECT description FROM current_settings WHERE pin = 'V20'`))
	assert.Equal(t, "Pump ON Threshold", desc)

	var remembered []int
	require.NoError(t, x.Select(&remembered, `SELECT value FROM remembered_smart_controls ORDER BY pin`))
	assert.Equal(t, []int{0, 0, 0}, remembered)

	var minTemp float64
	require.NoError(t, x.Get(&minTemp, `SELECT min_temp FROM notification_settings WHERE id = 1`))
	assert.Equal(t, 10.0, minTemp)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.NewSQLite(t)
	x := db.GetDB()

	_, err := x.Exec(`UPDATE current_settings SET value = 99 WHERE pin = 'V20'`)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(context.Background(), db))

	var value float64
	require.NoError(t, x.Get(&value, `SELECT value FROM current_settings WHERE pin = 'V20'`))
	assert.Equal(t, 99.0, value, "seeding must not overwrite existing rows")
}

func TestNormalizeLegacyColumns(t *testing.T) {
	x, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	x.SetMaxOpenConns(1)
	defer x.Close()

	_, err = x.Exec(`CREATE TABLE sensor_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		soil REAL, temp REAL, humidity REAL, light REAL, Pressure REAL,
		timestamp DATETIME NOT NULL
	)`)
	require.NoError(t, err)
	_, err = x.Exec(`INSERT INTO sensor_data (soil, temp, humidity, light, Pressure, timestamp)
		VALUES (41, 22.5, 55, 300, 1001, '2024-05-01 10:00:00+00:00')`)
	require.NoError(t, err)

	db := database.Wrap(x, database.DialectSQLite)
	require.NoError(t, database.Migrate(context.Background(), db))

	names := columnNames(t, x)
	assert.Contains(t, names, "soil_moisture")
	assert.Contains(t, names, "temperature")
	assert.Contains(t, names, "pressure")
	assert.NotContains(t, names, "soil")
	assert.NotContains(t, names, "temp")
	assert.NotContains(t, names, "Pressure")

	var pressure float64
	require.NoError(t, x.Get(&pressure, `SELECT pressure FROM sensor_data`))
	assert.Equal(t, 1001.0, pressure)
}

func TestMigrateClosesDuplicateOpenRecords(t *testing.T) {
	x, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	x.SetMaxOpenConns(1)
	defer x.Close()

	_, err = x.Exec(`CREATE TABLE device_operation_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device TEXT NOT NULL, status INTEGER NOT NULL,
		start_time DATETIME NOT NULL, end_time DATETIME, duration INTEGER, reason TEXT
	)`)
	require.NoError(t, err)
	for _, device := range []string{"pump", "pump", "lamp", "pump"} {
		_, err = x.Exec(`INSERT INTO device_operation_history (device, status, start_time)
			VALUES (?, 1, '2024-05-01 10:00:00+00:00')`, device)
		require.NoError(t, err)
	}

	db := database.Wrap(x, database.DialectSQLite)
	require.NoError(t, database.Migrate(context.Background(), db))

	var open []int64
	require.NoError(t, x.Select(&open, `SELECT id FROM device_operation_history WHERE end_time IS NULL ORDER BY id`))
	assert.Equal(t, []int64{3, 4}, open)

	var closed int
	require.NoError(t, x.Get(&closed, `SELECT COUNT(*) FROM device_operation_history WHERE duration = 0`))
	assert.Equal(t, 2, closed)

	_, err = x.Exec(`INSERT INTO device_operation_history (device, status, start_time)
		VALUES ('pump', 1, '2024-05-02 10:00:00+00:00')`)
	assert.Error(t, err, "a second open record must be rejected")
}

func TestNormalizeLegacyTimestamps(t *testing.T) {
	db := dbtest.NewSQLite(t)
	x := db.GetDB()

	_, err := x.Exec(`INSERT INTO sensor_data (temperature, timestamp) VALUES (1, '2024-05-01T09:00:00')`)
	require.NoError(t, err)
	_, err = x.Exec(`INSERT INTO sensor_data (temperature, timestamp) VALUES (2, ?)`,
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = x.Exec(`INSERT INTO device_operation_history (device, status, start_time)
		VALUES ('pump', 1, '2024-05-01T08:00:00')`)
	require.NoError(t, err)

	require.NoError(t, database.NormalizeLegacyTimestamps(context.Background(), db))

	var legacy int
	require.NoError(t, x.Get(&legacy, `SELECT COUNT(*) FROM sensor_data WHERE timestamp LIKE '%T%'`))
	assert.Zero(t, legacy)

	var order []float64
	require.NoError(t, x.Select(&order, `SELECT temperature FROM sensor_data ORDER BY timestamp`))
	assert.Equal(t, []float64{1, 2}, order)

	var inRange []float64
	require.NoError(t, x.Select(&inRange, `SELECT temperature FROM sensor_data WHERE timestamp BETWEEN ? AND ?`,
		time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, []float64{1}, inRange)

	var start time.Time
	var end *time.Time
	row := x.QueryRow(`SELECT start_time, end_time FROM device_operation_history`)
	require.NoError(t, row.Scan(&start, &end))
	assert.True(t, start.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))
	assert.Nil(t, end)
}

func TestNormalizeLegacyTimestampsIsIdempotent(t *testing.T) {
	db := dbtest.NewSQLite(t)
	_, err := db.GetDB().Exec(`INSERT INTO alerts (type, message, timestamp) VALUES ('cold', 'm', '2024-05-01T09:00:00')`)
	require.NoError(t, err)

	require.NoError(t, database.NormalizeLegacyTimestamps(context.Background(), db))
	require.NoError(t, database.Migrate(context.Background(), db))

	var stamp string
	require.NoError(t, db.GetDB().Get(&stamp, `SELECT CAST(timestamp AS TEXT) FROM alerts`))
	assert.Equal(t, "2024-05-01 09:00:00", stamp)
}
