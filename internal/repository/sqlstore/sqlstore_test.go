package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/gardenhub/server/hub/internal/database/dbtest"
	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestControlRepoUpsertAndHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewControlRepository(dbtest.NewSQLite(t))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertControlPoint(ctx, &models.ControlPoint{
		Pin: "V99", Value: 3, Description: "Unknown Pin V99", UpdatedAt: now,
	}, nil))
	value, ok, err := repo.GetControlValue(ctx, "V99", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3.0, value)

	require.NoError(t, repo.UpsertControlPoint(ctx, &models.ControlPoint{
		Pin: "V99", Value: 7, Description: "Unknown Pin V99", UpdatedAt: now,
	}, nil))
	value, _, err = repo.GetControlValue(ctx, "V99", nil)
	require.NoError(t, err)
	assert.Equal(t, 7.0, value)

	_, ok, err = repo.GetControlValue(ctx, "V404", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	for i := 0; i < 3; i++ {
		entry := &models.ControlHistoryEntry{Pin: "V20", Value: float64(i), Description: "Pump ON Threshold", Timestamp: now}
		require.NoError(t, repo.InsertHistory(ctx, entry, nil))
		assert.NotZero(t, entry.ID)
	}

	history, err := repo.ListHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2.0, history[0].Value, "newest first")
	assert.Equal(t, 1.0, history[1].Value)
	assert.True(t, history[0].Timestamp.Equal(now))
}

func TestControlRepoRemembered(t *testing.T) {
	ctx := context.Background()
	repo := NewControlRepository(dbtest.NewSQLite(t))

	value, err := repo.GetRemembered(ctx, models.PumpPin, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, value)

	require.NoError(t, repo.SetRemembered(ctx, &models.RememberedSmartState{
		Pin: models.PumpPin, Value: 1, UpdatedAt: time.Now().UTC(),
	}, nil))
	value, err = repo.GetRemembered(ctx, models.PumpPin, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, value)

	value, err = repo.GetRemembered(ctx, "V404", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, value)
}

func TestControlRepoRollback(t *testing.T) {
	ctx := context.Background()
	repo := NewControlRepository(dbtest.NewSQLite(t))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.UpsertControlPoint(ctx, &models.ControlPoint{
		Pin: models.GlobalPin, Value: 1, Description: "Smart Control", UpdatedAt: time.Now().UTC(),
	}, tx))
	require.NoError(t, tx.Rollback())

	value, ok, err := repo.GetControlValue(ctx, models.GlobalPin, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.0, value)
}

func TestDeviceRepoRecords(t *testing.T) {
	ctx := context.Background()
	repo := NewDeviceRepository(dbtest.NewSQLite(t))
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	open, err := repo.FindOpenRecord(ctx, models.DevicePump, nil)
	require.NoError(t, err)
	assert.Nil(t, open)

	rec := &models.DeviceOperationRecord{Device: models.DevicePump, Status: 1, StartTime: start, Reason: "Manual control"}
	require.NoError(t, repo.InsertRecord(ctx, rec, nil))

	open, err = repo.FindOpenRecord(ctx, models.DevicePump, nil)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, rec.ID, open.ID)
	assert.Nil(t, open.EndTime)
	assert.Nil(t, open.Duration)

	end := start.Add(90 * time.Second)
	require.NoError(t, repo.CloseRecord(ctx, rec.ID, end, 90, nil))

	open, err = repo.FindOpenRecord(ctx, models.DevicePump, nil)
	require.NoError(t, err)
	assert.Nil(t, open)

	err = repo.CloseRecord(ctx, 4242, end, 1, nil)
	assert.True(t, errors.IsNotFound(err))
}

func TestDeviceRepoRejectsSecondOpenRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewDeviceRepository(dbtest.NewSQLite(t))
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	first := &models.DeviceOperationRecord{Device: models.DevicePump, Status: 1, StartTime: start, Reason: "first"}
	require.NoError(t, repo.InsertRecord(ctx, first, nil))

	second := &models.DeviceOperationRecord{Device: models.DevicePump, Status: 1, StartTime: start.Add(time.Minute), Reason: "second"}
	err := repo.InsertRecord(ctx, second, nil)
	assert.True(t, errors.IsAlreadyOpen(err))
	assert.Zero(t, second.ID)

	lamp := &models.DeviceOperationRecord{Device: models.DeviceLamp, Status: 1, StartTime: start, Reason: "other device"}
	require.NoError(t, repo.InsertRecord(ctx, lamp, nil))

	require.NoError(t, repo.CloseRecord(ctx, first.ID, start.Add(time.Hour), 3600, nil))
	require.NoError(t, repo.InsertRecord(ctx, second, nil), "a closed record frees the slot")
	assert.NotZero(t, second.ID)
}

func TestDeviceRepoListRecordsFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewDeviceRepository(dbtest.NewSQLite(t))
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	seed := []models.DeviceOperationRecord{
		{Device: models.DevicePump, Status: 1, StartTime: day.Add(1 * time.Hour), Reason: "Manual control"},
		{Device: models.DeviceLamp, Status: 1, StartTime: day.Add(2 * time.Hour), Reason: "Smart schedule"},
		{Device: models.DevicePump, Status: 1, StartTime: day.Add(26 * time.Hour), Reason: "Soil too dry"},
	}
	for i := range seed {
		require.NoError(t, repo.InsertRecord(ctx, &seed[i], nil))
		if i == 0 {
			require.NoError(t, repo.CloseRecord(ctx, seed[0].ID, day.Add(2*time.Hour), 3600, nil))
		}
	}

	all, err := repo.ListRecords(ctx, models.DeviceRecordQuery{Sort: "start_time", Order: "desc"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, seed[2].ID, all[0].ID)

	pumps, err := repo.ListRecords(ctx, models.DeviceRecordQuery{Device: models.DevicePump, Sort: "start_time", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, pumps, 2)
	assert.Equal(t, seed[0].ID, pumps[0].ID)

	byReason, err := repo.ListRecords(ctx, models.DeviceRecordQuery{Reason: "schedule", Sort: "start_time", Order: "desc"})
	require.NoError(t, err)
	require.Len(t, byReason, 1)
	assert.Equal(t, models.DeviceLamp, byReason[0].Device)

	from, to := day, day.Add(23*time.Hour)
	inRange, err := repo.ListRecords(ctx, models.DeviceRecordQuery{Start: &from, End: &to, Sort: "start_time", Order: "desc"})
	require.NoError(t, err)
	assert.Len(t, inRange, 2)

	onlyStart, err := repo.ListRecords(ctx, models.DeviceRecordQuery{Start: &from, Sort: "start_time", Order: "desc"})
	require.NoError(t, err)
	assert.Len(t, onlyStart, 3, "a lone start date is ignored")

	stopped, err := repo.ListRecords(ctx, models.DeviceRecordQuery{Status: ptr(0), Sort: "start_time", Order: "desc"})
	require.NoError(t, err)
	assert.Empty(t, stopped)
}

func TestDeviceRepoStatuses(t *testing.T) {
	ctx := context.Background()
	repo := NewDeviceRepository(dbtest.NewSQLite(t))
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertStatus(ctx, &models.DeviceStatus{Device: models.DeviceFan, Status: 1, Since: now, UpdatedAt: now}, nil))
	require.NoError(t, repo.UpsertStatus(ctx, &models.DeviceStatus{Device: models.DeviceFan, Status: 0, Since: now.Add(time.Minute), UpdatedAt: now.Add(time.Minute)}, nil))

	statuses, err := repo.ListStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, 0, statuses[0].Status)
	assert.True(t, statuses[0].Since.Equal(now.Add(time.Minute)))
}

func TestSensorDataRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewSensorDataRepository(dbtest.NewSQLite(t))
	now := time.Now().UTC().Truncate(time.Second)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	stats, err := repo.Stats(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.SensorStats{}, *stats)

	old := &models.SensorSnapshot{Temperature: ptr(5.0), Humidity: ptr(90.0), Timestamp: now.Add(-48 * time.Hour)}
	require.NoError(t, repo.Insert(ctx, old))
	for _, temp := range []float64{20, 24} {
		require.NoError(t, repo.Insert(ctx, &models.SensorSnapshot{
			SoilMoisture: ptr(40.0),
			Temperature:  ptr(temp),
			Humidity:     ptr(50.0),
			Light:        ptr(300.0),
			Pressure:     ptr(1000.0),
			Timestamp:    now,
		}))
	}

	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 24.0, *latest.Temperature)

	recent, err := repo.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Nil(t, recent[2].SoilMoisture)

	stats, err = repo.Stats(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 22.0, stats.AvgTemp)
	assert.Equal(t, 24.0, stats.MaxTemp)
	assert.Equal(t, 20.0, stats.MinTemp)
	assert.Equal(t, 50.0, stats.MaxHumidity)

	deleted, err := repo.DeleteBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestAlertRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRepository(dbtest.NewSQLite(t))
	now := time.Now().UTC()

	for _, cat := range []models.AlertCategory{models.AlertCold, models.AlertDry} {
		require.NoError(t, repo.Insert(ctx, &models.AlertEvent{Type: cat, Message: string(cat), Timestamp: now}, nil))
	}

	claimed, err := repo.ClaimUnread(ctx, nil)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, models.AlertCold, claimed[0].Type)
	assert.Equal(t, models.AlertDry, claimed[1].Type)

	claimed, err = repo.ClaimUnread(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	require.NoError(t, repo.Insert(ctx, &models.AlertEvent{Type: models.AlertHeat, Message: "heat", Timestamp: now}, nil))

	deleted, err := repo.DeleteReadBefore(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted, "unread alerts are kept")

	claimed, err = repo.ClaimUnread(ctx, nil)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, models.AlertHeat, claimed[0].Type)
}

func TestNotificationSettingsRepo(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewSQLite(t)
	repo := NewNotificationSettingsRepository(db)

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNotificationSettings(), *settings)

	settings.MaxTemp = 30
	settings.HeatAlert = 0
	require.NoError(t, repo.Update(ctx, settings))

	settings, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30.0, settings.MaxTemp)
	assert.Equal(t, 0, settings.HeatAlert)

	_, err = db.GetDB().Exec(`DELETE FROM notification_settings`)
	require.NoError(t, err)

	_, err = repo.Get(ctx)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(repo.Update(ctx, settings)))
}
