// FilePath: internal/models/models.sensor_data.go
package models

import "time"

// SensorSnapshot is one poll of the sensor cloud. Fields the cloud did not
// report stay nil.
type SensorSnapshot struct {
	ID           int64     `json:"-" db:"id"`
	SoilMoisture *float64  `json:"soil" db:"soil_moisture"`
	Temperature  *float64  `json:"temp" db:"temperature"`
	Humidity     *float64  `json:"humidity" db:"humidity"`
	Light        *float64  `json:"light" db:"light"`
	Pressure     *float64  `json:"pressure" db:"pressure"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
}

// SensorStats aggregates snapshots over a window. Missing values are zero.
type SensorStats struct {
	AvgSoil     float64 `json:"avg_soil" db:"avg_soil"`
	AvgTemp     float64 `json:"avg_temp" db:"avg_temp"`
	AvgHumidity float64 `json:"avg_humidity" db:"avg_humidity"`
	AvgLight    float64 `json:"avg_light" db:"avg_light"`
	AvgPressure float64 `json:"avg_pressure" db:"avg_pressure"`
	MaxTemp     float64 `json:"max_temp" db:"max_temp"`
	MinTemp     float64 `json:"min_temp" db:"min_temp"`
	MaxHumidity float64 `json:"max_humidity" db:"max_humidity"`
	MinHumidity float64 `json:"min_humidity" db:"min_humidity"`
}
