package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/gardenhub/server/hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDeviceHistoryWorkbook(t *testing.T) {
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	duration := int64(90)

	data, err := DeviceHistoryWorkbook([]models.DeviceOperationRecord{
		{ID: 2, Device: "lamp", Status: 1, StartTime: start.Add(time.Hour), Reason: "Manual control"},
		{ID: 1, Device: "pump", Status: 1, StartTime: start, EndTime: &end, Duration: &duration, Reason: "Soil dry"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{deviceHistorySheet}, f.GetSheetList())

	rows, err := f.GetRows(deviceHistorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, deviceHistoryHeader, rows[0])
	assert.Equal(t, []string{"2", "lamp", "1", "2024-06-01 09:00:00", "", "", "Manual control"}, rows[1])
	assert.Equal(t, []string{"1", "pump", "1", "2024-06-01 08:00:00", "2024-06-01 08:01:30", "90", "Soil dry"}, rows[2])
}

func TestDeviceHistoryWorkbookEmpty(t *testing.T) {
	data, err := DeviceHistoryWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(deviceHistorySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, "device-history-20240601-080509.xlsx", Filename("device-history", at))
}
