// FilePath: internal/models/models.control.go
package models

import (
	"sort"
	"time"
)

// Control point identifiers used by the smart-control cascade.
const (
	GlobalPin = "V8"
	PumpPin   = "V26"
	LampPin   = "V27"
	FanPin    = "V28"
)

// DependentPins are the smart controls governed by GlobalPin, in cascade order.
var DependentPins = []string{PumpPin, LampPin, FanPin}

// DeviceToDependentPin maps a device name to its smart-control pin.
var DeviceToDependentPin = map[string]string{
	DevicePump: PumpPin,
	DeviceLamp: LampPin,
	DeviceFan:  FanPin,
}

// DefaultSettings holds the value each known pin starts with.
var DefaultSettings = map[string]float64{
	GlobalPin: 0,
	PumpPin:   0,
	LampPin:   0,
	FanPin:    0,
	"V20":     40,
	"V21":     10,
	"V22":     300,
	"V23":     60,
	"V24":     500,
	"V25":     5,
}

var pinDescriptions = map[string]string{
	GlobalPin: "Smart Control",
	PumpPin:   "Smart Pump Control",
	LampPin:   "Smart Lamp Control",
	FanPin:    "Smart Fan Control",
	"V20":     "Pump ON Threshold",
	"V21":     "Fan Interval",
	"V22":     "Lamp ON Threshold",
	"V23":     "Pump OFF Threshold",
	"V24":     "Lamp OFF Threshold",
	"V25":     "Fan Duration",
}

// PinDescription returns the human readable name of a pin.
// Unknown pins are accepted and get a placeholder.
func PinDescription(pin string) string {
	if desc, ok := pinDescriptions[pin]; ok {
		return desc
	}
	return "Unknown Pin " + pin
}

// DefaultPins returns the known pins in a stable order.
func DefaultPins() []string {
	pins := make([]string, 0, len(DefaultSettings))
	for pin := range DefaultSettings {
		pins = append(pins, pin)
	}
	sort.Strings(pins)
	return pins
}

// IsDependentPin reports whether pin is one of the three smart sub-controls.
func IsDependentPin(pin string) bool {
	for _, p := range DependentPins {
		if p == pin {
			return true
		}
	}
	return false
}

// ControlPoint is the current value of a pin.
type ControlPoint struct {
	Pin         string    `json:"pin" db:"pin"`
	Value       float64   `json:"value" db:"value"`
	Description string    `json:"description" db:"description"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ControlHistoryEntry records one write to a pin, cascaded writes included.
type ControlHistoryEntry struct {
	ID          int64     `json:"id" db:"id"`
	Pin         string    `json:"pin" db:"pin"`
	Value       float64   `json:"value" db:"value"`
	Description string    `json:"description" db:"description"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// RememberedSmartState is the last explicit "on" intent of a dependent control.
type RememberedSmartState struct {
	Pin       string    `json:"pin" db:"pin"`
	Value     int       `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PinCommand is a value to push to the sensor cloud.
type PinCommand struct {
	Pin   string
	Value float64
}
