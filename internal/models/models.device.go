// FilePath: internal/models/models.device.go
package models

import "time"

const (
	DevicePump = "pump"
	DeviceLamp = "lamp"
	DeviceFan  = "fan"

	DefaultDeviceReason = "Manual control"
)

// DeviceActuationPin is the cloud pin switching each device.
var DeviceActuationPin = map[string]string{
	DevicePump: "V4",
	DeviceLamp: "V11",
	DeviceFan:  "V7",
}

// IsValidDevice reports whether name is a known device.
func IsValidDevice(name string) bool {
	_, ok := DeviceActuationPin[name]
	return ok
}

// DeviceStatus is the latest known state of a device.
type DeviceStatus struct {
	Device    string    `json:"device" db:"device"`
	Status    int       `json:"status" db:"status"`
	Since     time.Time `json:"since" db:"since"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// DeviceOperationRecord is one activation interval of a device.
// EndTime and Duration stay nil while the device is running.
type DeviceOperationRecord struct {
	ID        int64      `json:"id" db:"id"`
	Device    string     `json:"device" db:"device"`
	Status    int        `json:"status" db:"status"`
	StartTime time.Time  `json:"start_time" db:"start_time"`
	EndTime   *time.Time `json:"end_time" db:"end_time"`
	Duration  *int64     `json:"duration" db:"duration"`
	Reason    string     `json:"reason" db:"reason"`
}
