package devicestatus

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/database/dbtest"
	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/events"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/gardenhub/server/hub/internal/repository/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActuator struct {
	mu   sync.Mutex
	cmds []models.PinCommand
}

func (a *fakeActuator) Enqueue(cmds ...models.PinCommand) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cmds = append(a.cmds, cmds...)
}

type recordingPublisher struct {
	changes []events.DeviceChange
}

func (p *recordingPublisher) Publish(name string, payload any) {
	if change, ok := payload.(events.DeviceChange); ok && name == events.DeviceChanged {
		p.changes = append(p.changes, change)
	}
}

func newLedger(t *testing.T) (*Ledger, *fakeActuator, *recordingPublisher) {
	t.Helper()
	actuator := &fakeActuator{}
	pub := &recordingPublisher{}
	devices := sqlstore.NewDeviceRepository(dbtest.NewSQLite(t))
	return New(devices, actuator, pub), actuator, pub
}

var t0 = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func TestOnThenOffClosesOneRecord(t *testing.T) {
	ctx := context.Background()
	ledger, actuator, pub := newLedger(t)

	status, err := ledger.SetDeviceStatus(ctx, models.DevicePump, 1, "", t0)
	require.NoError(t, err)
	assert.Equal(t, 1, status)

	_, err = ledger.SetDeviceStatus(ctx, models.DevicePump, 0, "", t0.Add(90*time.Second+700*time.Millisecond))
	require.NoError(t, err)

	records, err := ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, models.DevicePump, rec.Device)
	assert.Equal(t, models.DefaultDeviceReason, rec.Reason)
	require.NotNil(t, rec.EndTime)
	require.NotNil(t, rec.Duration)
	assert.Equal(t, int64(90), *rec.Duration)

	assert.Equal(t, []models.PinCommand{{Pin: "V4", Value: 1}, {Pin: "V4", Value: 0}}, actuator.cmds)
	require.Len(t, pub.changes, 2)
	assert.Equal(t, 0, pub.changes[1].Status)
}

func TestOffWithoutOpenRecordOnlyUpdatesStatus(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newLedger(t)

	_, err := ledger.SetDeviceStatus(ctx, models.DeviceLamp, 0, "night", t0)
	require.NoError(t, err)

	records, err := ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{})
	require.NoError(t, err)
	assert.Empty(t, records)

	statuses, err := ledger.CurrentStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, models.DeviceLamp, statuses[0].Device)
	assert.Equal(t, 0, statuses[0].Status)
	assert.True(t, statuses[0].Since.Equal(t0))
}

func TestRepeatedOnKeepsSingleOpenRecord(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newLedger(t)

	_, err := ledger.SetDeviceStatus(ctx, models.DeviceFan, 1, "first", t0)
	require.NoError(t, err)
	_, err = ledger.SetDeviceStatus(ctx, models.DeviceFan, 1, "second", t0.Add(time.Minute))
	require.NoError(t, err)

	records, err := ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{Device: models.DeviceFan})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "first", records[0].Reason)
	assert.Nil(t, records[0].EndTime)

	statuses, err := ledger.CurrentStatuses(ctx)
	require.NoError(t, err)
	assert.True(t, statuses[0].Since.Equal(t0.Add(time.Minute)))
}

// staleDevices never sees an open record, like a transaction that read
// before a concurrent switch-on committed.
type staleDevices struct {
	*sqlstore.DeviceRepo
}

func (staleDevices) FindOpenRecord(context.Context, string, database.Querier) (*models.DeviceOperationRecord, error) {
	return nil, nil
}

func TestConcurrentOnKeepsSingleOpenRecord(t *testing.T) {
	ctx := context.Background()
	devices := sqlstore.NewDeviceRepository(dbtest.NewSQLite(t))
	actuator := &fakeActuator{}
	ledger := New(staleDevices{devices}, actuator, nil)

	_, err := ledger.SetDeviceStatus(ctx, models.DeviceFan, 1, "first", t0)
	require.NoError(t, err)
	status, err := ledger.SetDeviceStatus(ctx, models.DeviceFan, 1, "second", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, status)

	records, err := devices.ListRecords(ctx, models.DeviceRecordQuery{Device: models.DeviceFan, Sort: "start_time", Order: "desc"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "first", records[0].Reason)
	assert.Nil(t, records[0].EndTime)
	assert.Len(t, actuator.cmds, 2)
}

func TestClockSkewClampsDuration(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newLedger(t)

	_, err := ledger.SetDeviceStatus(ctx, models.DevicePump, 1, "", t0)
	require.NoError(t, err)
	_, err = ledger.SetDeviceStatus(ctx, models.DevicePump, 0, "", t0.Add(-time.Minute))
	require.NoError(t, err)

	records, err := ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(0), *records[0].Duration)
}

func TestSetDeviceStatusRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	ledger, actuator, _ := newLedger(t)

	_, err := ledger.SetDeviceStatus(ctx, "heater", 1, "", t0)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.True(t, stderrors.Is(err, errors.ErrInvalidDevice))

	_, err = ledger.SetDeviceStatus(ctx, models.DevicePump, 2, "", t0)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidStatus))

	statuses, err := ledger.CurrentStatuses(ctx)
	require.NoError(t, err)
	assert.Empty(t, statuses)
	assert.Empty(t, actuator.cmds)
}

func TestListOperationHistoryFilters(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newLedger(t)

	day := func(d int) time.Time { return t0.AddDate(0, 0, d) }
	steps := []struct {
		device string
		status int
		reason string
		at     time.Time
	}{
		{models.DevicePump, 1, "Soil dry", day(0)},
		{models.DevicePump, 0, "", day(0).Add(10 * time.Minute)},
		{models.DeviceLamp, 1, "Manual control", day(1)},
		{models.DeviceLamp, 0, "", day(1).Add(time.Hour)},
		{models.DevicePump, 1, "Soil dry again", day(2)},
	}
	for _, s := range steps {
		_, err := ledger.SetDeviceStatus(ctx, s.device, s.status, s.reason, s.at)
		require.NoError(t, err)
	}

	all, err := ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Soil dry again", all[0].Reason, "newest first by default")

	pump, err := ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{Device: models.DevicePump, Order: "asc"})
	require.NoError(t, err)
	require.Len(t, pump, 2)
	assert.Equal(t, "Soil dry", pump[0].Reason)

	bySoil, err := ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{Reason: "soil"})
	require.NoError(t, err)
	assert.Len(t, bySoil, 2, "reason match is case-insensitive in sqlite LIKE")

	ranged, err := ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{
		StartDate: "2024-06-02",
		EndDate:   "2024-06-02T23:59:59",
	})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, models.DeviceLamp, ranged[0].Device)

	onlyStart, err := ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{StartDate: "2024-06-03"})
	require.NoError(t, err)
	assert.Len(t, onlyStart, 3, "a lone start date is ignored")

	byDuration, err := ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{Sort: "duration", Order: "DESC"})
	require.NoError(t, err)
	require.Len(t, byDuration, 3)
	assert.Equal(t, models.DeviceLamp, byDuration[0].Device)

	_, err = ledger.ListOperationHistory(ctx, models.DeviceHistoryFilters{Status: "on"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestBuildQueryFallsBackOnUnknownSort(t *testing.T) {
	query, err := BuildQuery(models.DeviceHistoryFilters{Sort: "id; DROP TABLE x", Order: "sideways", Status: "1"})
	require.NoError(t, err)
	assert.Equal(t, "start_time", query.Sort)
	assert.Equal(t, "desc", query.Order)
	require.NotNil(t, query.Status)
	assert.Equal(t, 1, *query.Status)
	assert.Nil(t, query.Start)

	_, err = BuildQuery(models.DeviceHistoryFilters{StartDate: "yesterday", EndDate: "2024-01-01"})
	require.Error(t, err)
}
