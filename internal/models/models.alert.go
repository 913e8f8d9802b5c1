// FilePath: internal/models/models.alert.go
package models

import "time"

// AlertCategory names the threshold that was crossed.
type AlertCategory string

const (
	AlertCold      AlertCategory = "cold"
	AlertHeat      AlertCategory = "heat"
	AlertDry       AlertCategory = "dry"
	AlertHumid     AlertCategory = "humid"
	AlertLowPress  AlertCategory = "low_press"
	AlertHighPress AlertCategory = "high_press"
)

// Alert is an evaluator result before it is stored.
type Alert struct {
	Category AlertCategory
	Message  string
}

// AlertEvent is a stored alert.
type AlertEvent struct {
	ID        int64         `json:"id" db:"id"`
	Type      AlertCategory `json:"type" db:"type"`
	Message   string        `json:"message" db:"message"`
	Timestamp time.Time     `json:"timestamp" db:"timestamp"`
	IsRead    int           `json:"-" db:"is_read"`
}

// NotificationSettings holds the alert bounds and per-category flags.
// Flags are stored and exchanged as 0/1.
type NotificationSettings struct {
	MinTemp        float64 `json:"min_temp" db:"min_temp"`
	MaxTemp        float64 `json:"max_temp" db:"max_temp"`
	MinHumid       float64 `json:"min_humid" db:"min_humid"`
	MaxHumid       float64 `json:"max_humid" db:"max_humid"`
	MinPress       float64 `json:"min_press" db:"min_press"`
	MaxPress       float64 `json:"max_press" db:"max_press"`
	ColdAlert      int     `json:"cold_alert" db:"cold_alert"`
	HeatAlert      int     `json:"heat_alert" db:"heat_alert"`
	DryAlert       int     `json:"dry_alert" db:"dry_alert"`
	HumidAlert     int     `json:"humid_alert" db:"humid_alert"`
	LowPressAlert  int     `json:"low_press_alert" db:"low_press_alert"`
	HighPressAlert int     `json:"high_press_alert" db:"high_press_alert"`
}

// DefaultNotificationSettings returns the seeded bounds with every flag on.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		MinTemp:        10,
		MaxTemp:        35,
		MinHumid:       30,
		MaxHumid:       70,
		MinPress:       980,
		MaxPress:       1020,
		ColdAlert:      1,
		HeatAlert:      1,
		DryAlert:       1,
		HumidAlert:     1,
		LowPressAlert:  1,
		HighPressAlert: 1,
	}
}

// NotificationSettingsUpdate is a partial update; nil fields are left alone.
type NotificationSettingsUpdate struct {
	MinTemp        *float64 `json:"min_temp"`
	MaxTemp        *float64 `json:"max_temp"`
	MinHumid       *float64 `json:"min_humid"`
	MaxHumid       *float64 `json:"max_humid"`
	MinPress       *float64 `json:"min_press"`
	MaxPress       *float64 `json:"max_press"`
	ColdAlert      *int     `json:"cold_alert"`
	HeatAlert      *int     `json:"heat_alert"`
	DryAlert       *int     `json:"dry_alert"`
	HumidAlert     *int     `json:"humid_alert"`
	LowPressAlert  *int     `json:"low_press_alert"`
	HighPressAlert *int     `json:"high_press_alert"`
}

// Apply copies the set fields onto s.
func (u NotificationSettingsUpdate) Apply(s *NotificationSettings) {
	setFloat(&s.MinTemp, u.MinTemp)
	setFloat(&s.MaxTemp, u.MaxTemp)
	setFloat(&s.MinHumid, u.MinHumid)
	setFloat(&s.MaxHumid, u.MaxHumid)
	setFloat(&s.MinPress, u.MinPress)
	setFloat(&s.MaxPress, u.MaxPress)
	setInt(&s.ColdAlert, u.ColdAlert)
	setInt(&s.HeatAlert, u.HeatAlert)
	setInt(&s.DryAlert, u.DryAlert)
	setInt(&s.HumidAlert, u.HumidAlert)
	setInt(&s.LowPressAlert, u.LowPressAlert)
	setInt(&s.HighPressAlert, u.HighPressAlert)
}

// IsEmpty reports whether no field is set.
func (u NotificationSettingsUpdate) IsEmpty() bool {
	return u.MinTemp == nil && u.MaxTemp == nil && u.MinHumid == nil && u.MaxHumid == nil &&
		u.MinPress == nil && u.MaxPress == nil && u.ColdAlert == nil && u.HeatAlert == nil &&
		u.DryAlert == nil && u.HumidAlert == nil && u.LowPressAlert == nil && u.HighPressAlert == nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
