package influx

import (
	"testing"
	"time"

	"github.com/gardenhub/server/hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotPoint(t *testing.T) {
	temp, hum := 22.5, 60.0
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	point := SnapshotPoint(&models.SensorSnapshot{Temperature: &temp, Humidity: &hum, Timestamp: ts})
	require.NotNil(t, point)
	assert.Equal(t, "garden_sensors", point.Name())
	assert.True(t, point.Time().Equal(ts))

	fields := map[string]interface{}{}
	for _, f := range point.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, map[string]interface{}{"temperature": 22.5, "humidity": 60.0}, fields)
}

func TestSnapshotPointEmpty(t *testing.T) {
	assert.Nil(t, SnapshotPoint(&models.SensorSnapshot{Timestamp: time.Now()}))
}
