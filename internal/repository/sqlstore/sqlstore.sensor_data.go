package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/models"
)

const snapshotColumns = `id, soil_moisture, temperature, humidity, light, pressure, timestamp`

type SensorDataRepo struct {
	db database.DB
}

func NewSensorDataRepository(db database.DB) *SensorDataRepo {
	return &SensorDataRepo{db: db}
}

func (r *SensorDataRepo) Insert(ctx context.Context, snapshot *models.SensorSnapshot) error {
	x := r.db.GetDB()
	query := x.Rebind(`
		INSERT INTO sensor_data (soil_moisture, temperature, humidity, light, pressure, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := x.GetContext(ctx, &snapshot.ID, query,
		snapshot.SoilMoisture, snapshot.Temperature, snapshot.Humidity,
		snapshot.Light, snapshot.Pressure, snapshot.Timestamp)
	if err != nil {
		return errors.NewDatabaseError("failed to insert sensor snapshot", err)
	}
	return nil
}

// Latest returns the newest snapshot, or nil when nothing was stored yet.
func (r *SensorDataRepo) Latest(ctx context.Context) (*models.SensorSnapshot, error) {
	snapshot := &models.SensorSnapshot{}
	query := `SELECT ` + snapshotColumns + ` FROM sensor_data ORDER BY id DESC LIMIT 1`

	if err := r.db.GetDB().GetContext(ctx, snapshot, query); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewDatabaseError("failed to get latest snapshot", err)
	}
	return snapshot, nil
}

func (r *SensorDataRepo) Recent(ctx context.Context, limit int) ([]models.SensorSnapshot, error) {
	x := r.db.GetDB()
	snapshots := []models.SensorSnapshot{}
	query := x.Rebind(`SELECT ` + snapshotColumns + ` FROM sensor_data ORDER BY id DESC LIMIT ?`)

	if err := x.SelectContext(ctx, &snapshots, query, limit); err != nil {
		return nil, errors.NewDatabaseError("failed to list snapshots", err)
	}
	return snapshots, nil
}

type statsRow struct {
	AvgSoil     sql.NullFloat64 `db:"avg_soil"`
	AvgTemp     sql.NullFloat64 `db:"avg_temp"`
	AvgHumidity sql.NullFloat64 `db:"avg_humidity"`
	AvgLight    sql.NullFloat64 `db:"avg_light"`
	AvgPressure sql.NullFloat64 `db:"avg_pressure"`
	MaxTemp     sql.NullFloat64 `db:"max_temp"`
	MinTemp     sql.NullFloat64 `db:"min_temp"`
	MaxHumidity sql.NullFloat64 `db:"max_humidity"`
	MinHumidity sql.NullFloat64 `db:"min_humidity"`
}

// Stats aggregates snapshots taken at or after since. Empty windows give zeros.
func (r *SensorDataRepo) Stats(ctx context.Context, since time.Time) (*models.SensorStats, error) {
	x := r.db.GetDB()
	query := x.Rebind(`
		SELECT
			AVG(soil_moisture) AS avg_soil,
			AVG(temperature) AS avg_temp,
			AVG(humidity) AS avg_humidity,
			AVG(light) AS avg_light,
			AVG(pressure) AS avg_pressure,
			MAX(temperature) AS max_temp,
			MIN(temperature) AS min_temp,
			MAX(humidity) AS max_humidity,
			MIN(humidity) AS min_humidity
		FROM sensor_data
		WHERE timestamp >= ?`)

	var row statsRow
	if err := x.GetContext(ctx, &row, query, since); err != nil {
		return nil, errors.NewDatabaseError("failed to aggregate snapshots", err)
	}

	return &models.SensorStats{
		AvgSoil:     row.AvgSoil.Float64,
		AvgTemp:     row.AvgTemp.Float64,
		AvgHumidity: row.AvgHumidity.Float64,
		AvgLight:    row.AvgLight.Float64,
		AvgPressure: row.AvgPressure.Float64,
		MaxTemp:     row.MaxTemp.Float64,
		MinTemp:     row.MinTemp.Float64,
		MaxHumidity: row.MaxHumidity.Float64,
		MinHumidity: row.MinHumidity.Float64,
	}, nil
}

func (r *SensorDataRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	x := r.db.GetDB()
	result, err := x.ExecContext(ctx, x.Rebind(`DELETE FROM sensor_data WHERE timestamp < ?`), before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete old snapshots", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}
	return rows, nil
}
