package monitoring

import (
	"testing"
	"time"

	"github.com/gardenhub/server/hub/internal/actuation"
	"github.com/gardenhub/server/hub/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats struct{}

func (fixedStats) Stats() actuation.Stats { return actuation.Stats{Pushed: 4, Failed: 1} }

func TestServiceCountsBusEvents(t *testing.T) {
	bus := events.NewBus()
	svc := NewService(fixedStats{})
	svc.Attach(bus)

	bus.Publish(events.ControlChanged, events.ControlChange{Pin: "V8"})
	bus.Publish(events.ControlChanged, events.ControlChange{Pin: "V26"})
	bus.Publish(events.AlertRaised, nil)

	require.Eventually(t, func() bool {
		m := svc.Snapshot()
		return m.Events[events.ControlChanged] == 2 && m.Events[events.AlertRaised] == 1
	}, time.Second, 5*time.Millisecond)

	m := svc.Snapshot()
	assert.Zero(t, m.Events[events.RetentionPruned])
	assert.Contains(t, m.LastEvent, events.AlertRaised)
	require.NotNil(t, m.Actuation)
	assert.Equal(t, int64(4), m.Actuation.Pushed)
}

func TestSnapshotWithoutDispatcher(t *testing.T) {
	svc := NewService(nil)
	svc.RecordEvent(events.Event{Name: events.DeviceChanged, At: time.Now()})

	m := svc.Snapshot()
	assert.Equal(t, int64(1), m.Events[events.DeviceChanged])
	assert.Nil(t, m.Actuation)
	assert.Len(t, m.Events, len(events.Names))
}
