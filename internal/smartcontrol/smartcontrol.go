// FilePath: internal/smartcontrol/smartcontrol.go
package smartcontrol

import (
	"context"
	"strings"
	"time"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/events"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/gardenhub/server/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Actuator takes the pushes produced by a cascade.
type Actuator interface {
	Enqueue(cmds ...models.PinCommand)
}

// Coordinator owns the control points and the global smart-control cascade.
//
// Turning the global control (V8) off forces the three dependent controls to
// 0 without touching what they remember. Turning it on restores the
// dependents whose remembered intent is 1. Setting a dependent to 1 is
// remembered even while the global control is off.
type Coordinator struct {
	controls repository.ControlRepository
	actuator Actuator
	events   events.Publisher
	now      func() time.Time
}

func New(controls repository.ControlRepository, actuator Actuator, publisher events.Publisher) *Coordinator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Coordinator{
		controls: controls,
		actuator: actuator,
		events:   publisher,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetControlPoint writes value to pin and runs the cascade in one
// transaction. It returns every write made, the requested one first.
// Cascaded writes are queued for the device cloud after commit; the caller
// pushes the requested pin itself.
func (c *Coordinator) SetControlPoint(ctx context.Context, pin string, value float64) ([]events.ControlChange, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, errors.NewValidationError("pin is required", nil)
	}

	tx, err := c.controls.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := c.now()
	desc := models.PinDescription(pin)
	if err := c.write(ctx, tx, pin, value, desc, desc, now); err != nil {
		return nil, err
	}
	changes := []events.ControlChange{{Pin: pin, Value: value, Description: desc}}

	if models.IsDependentPin(pin) && value == 1 {
		state := &models.RememberedSmartState{Pin: pin, Value: 1, UpdatedAt: now}
		if err := c.controls.SetRemembered(ctx, state, tx); err != nil {
			return nil, err
		}
	}

	if pin == models.GlobalPin {
		cascaded, err := c.cascade(ctx, tx, value, now)
		if err != nil {
			return nil, err
		}
		changes = append(changes, cascaded...)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewDatabaseError("failed to commit transaction", err)
	}

	var cmds []models.PinCommand
	for _, change := range changes {
		if change.Cascaded {
			cmds = append(cmds, models.PinCommand{Pin: change.Pin, Value: change.Value})
		}
		c.events.Publish(events.ControlChanged, change)
	}
	if len(cmds) > 0 {
		c.actuator.Enqueue(cmds...)
	}

	nuts.L.Infof("[SmartControl] %s (%s) = %v, %d cascaded", desc, pin, value, len(changes)-1)
	return changes, nil
}

func (c *Coordinator) cascade(ctx context.Context, tx database.Querier, value float64, now time.Time) ([]events.ControlChange, error) {
	var changes []events.ControlChange

	switch value {
	case 0:
		for _, dep := range models.DependentPins {
			desc := models.PinDescription(dep)
			if err := c.write(ctx, tx, dep, 0, desc+" (auto-disabled)", desc, now); err != nil {
				return nil, err
			}
			changes = append(changes, events.ControlChange{Pin: dep, Value: 0, Description: desc + " (auto-disabled)", Cascaded: true})
		}
	case 1:
		for _, dep := range models.DependentPins {
			remembered, err := c.controls.GetRemembered(ctx, dep, tx)
			if err != nil {
				return nil, err
			}
			if remembered != 1 {
				continue
			}
			desc := models.PinDescription(dep)
			if err := c.write(ctx, tx, dep, 1, desc+" (auto-restored)", desc, now); err != nil {
				return nil, err
			}
			changes = append(changes, events.ControlChange{Pin: dep, Value: 1, Description: desc + " (auto-restored)", Cascaded: true})
		}
	}
	return changes, nil
}

// write appends a history entry and upserts the control point.
func (c *Coordinator) write(ctx context.Context, tx database.Querier, pin string, value float64, historyDesc, pointDesc string, now time.Time) error {
	entry := &models.ControlHistoryEntry{Pin: pin, Value: value, Description: historyDesc, Timestamp: now}
	if err := c.controls.InsertHistory(ctx, entry, tx); err != nil {
		return err
	}
	point := &models.ControlPoint{Pin: pin, Value: value, Description: pointDesc, UpdatedAt: now}
	return c.controls.UpsertControlPoint(ctx, point, tx)
}

// IsSmartControlEnabled reports whether both the global control and the
// device's own smart control are on. Unknown devices are never enabled.
func (c *Coordinator) IsSmartControlEnabled(ctx context.Context, device string) (bool, error) {
	pin, ok := models.DeviceToDependentPin[device]
	if !ok {
		return false, nil
	}

	global, ok, err := c.controls.GetControlValue(ctx, models.GlobalPin, nil)
	if err != nil {
		return false, err
	}
	if !ok || global != 1 {
		return false, nil
	}

	value, ok, err := c.controls.GetControlValue(ctx, pin, nil)
	if err != nil {
		return false, err
	}
	return ok && value == 1, nil
}

// CurrentSettings returns every pin value, filling in defaults for known
// pins that have no row.
func (c *Coordinator) CurrentSettings(ctx context.Context) (map[string]float64, error) {
	points, err := c.controls.ListControlPoints(ctx)
	if err != nil {
		return nil, err
	}

	settings := make(map[string]float64, len(models.DefaultSettings)+len(points))
	for pin, value := range models.DefaultSettings {
		settings[pin] = value
	}
	for _, p := range points {
		settings[p.Pin] = p.Value
	}
	return settings, nil
}

// History returns the newest control writes.
func (c *Coordinator) History(ctx context.Context, query models.ControlHistoryQuery) ([]models.ControlHistoryEntry, error) {
	query.Normalize()
	return c.controls.ListHistory(ctx, query.Limit)
}
