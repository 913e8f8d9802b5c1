package sqlstore

import (
	"context"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/errors"
)

// BaseRepo carries the handle shared by every repository. Both SQLite and
// PostgreSQL go through it; queries are written with ? and rebound.
type BaseRepo struct {
	db database.DB
}

func (r *BaseRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to begin transaction", err)
	}
	return tx, nil
}

// querier falls back to the pool when no transaction is given.
func (r *BaseRepo) querier(q database.Querier) database.Querier {
	if q == nil {
		return r.db.GetDB()
	}
	return q
}

// Repositories bundles every store backed by one database.
type Repositories struct {
	Controls             *ControlRepo
	Devices              *DeviceRepo
	SensorData           *SensorDataRepo
	Alerts               *AlertRepo
	NotificationSettings *NotificationSettingsRepo
}

// New builds all repositories over db.
func New(db database.DB) *Repositories {
	return &Repositories{
		Controls:             NewControlRepository(db),
		Devices:              NewDeviceRepository(db),
		SensorData:           NewSensorDataRepository(db),
		Alerts:               NewAlertRepository(db),
		NotificationSettings: NewNotificationSettingsRepository(db),
	}
}
