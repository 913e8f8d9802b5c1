// FilePath: internal/events/events.go
package events

import (
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Event names emitted by the hub.
const (
	ControlChanged  = "control.changed"
	DeviceChanged   = "device.changed"
	AlertRaised     = "alert.raised"
	ReadingStored   = "reading.stored"
	RetentionPruned = "retention.pruned"
)

// Names lists every event the hub emits.
var Names = []string{ControlChanged, DeviceChanged, AlertRaised, ReadingStored, RetentionPruned}

// Event is what subscribers receive.
type Event struct {
	Name    string    `json:"event"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// ControlChange is the payload of ControlChanged. Cascaded is set for writes
// made on behalf of the global smart control.
type ControlChange struct {
	Pin         string  `json:"pin"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	Cascaded    bool    `json:"cascaded"`
}

// DeviceChange is the payload of DeviceChanged.
type DeviceChange struct {
	Device string `json:"device"`
	Status int    `json:"status"`
	Reason string `json:"reason"`
}

// Pruned is the payload of RetentionPruned.
type Pruned struct {
	Snapshots int64 `json:"snapshots"`
	Alerts    int64 `json:"alerts"`
}

// Publisher is the emitting side of the bus, accepted by producers.
type Publisher interface {
	Publish(name string, payload any)
}

// Bus fans domain events out to subscribers.
type Bus struct {
	emitter *nuts.EventEmitter
}

func NewBus() *Bus {
	return &Bus{emitter: nuts.NewEventEmitter()}
}

// Publish emits name with payload stamped at the current time.
func (b *Bus) Publish(name string, payload any) {
	b.emitter.Emit(name, Event{Name: name, At: time.Now().UTC(), Payload: payload})
}

// Subscribe registers handler for name and returns the subscription id.
func (b *Bus) Subscribe(name string, handler func(Event)) string {
	id := nuts.NID("sub", 8)
	b.emitter.On(name, id, func(args ...interface{}) {
		if len(args) == 0 {
			return
		}
		if evt, ok := args[0].(Event); ok {
			handler(evt)
		}
	})
	return id
}

// SubscribeAll registers handler for every hub event.
func (b *Bus) SubscribeAll(handler func(Event)) {
	for _, name := range Names {
		b.Subscribe(name, handler)
	}
}

// Nop discards events. Used where no bus is wired.
type Nop struct{}

func (Nop) Publish(string, any) {}
