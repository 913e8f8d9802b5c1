// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/models"
)

// Methods taking a database.Querier run inside the caller's transaction;
// a nil Querier runs against the pool.

// ControlRepository stores control points, their history and the remembered
// smart-control intents.
type ControlRepository interface {
	database.Repository
	InsertHistory(ctx context.Context, entry *models.ControlHistoryEntry, q database.Querier) error
	UpsertControlPoint(ctx context.Context, point *models.ControlPoint, q database.Querier) error
	GetControlValue(ctx context.Context, pin string, q database.Querier) (float64, bool, error)
	ListControlPoints(ctx context.Context) ([]models.ControlPoint, error)
	ListHistory(ctx context.Context, limit int) ([]models.ControlHistoryEntry, error)
	GetRemembered(ctx context.Context, pin string, q database.Querier) (int, error)
	SetRemembered(ctx context.Context, state *models.RememberedSmartState, q database.Querier) error
}

// DeviceRepository stores device status and operation intervals.
type DeviceRepository interface {
	database.Repository
	UpsertStatus(ctx context.Context, status *models.DeviceStatus, q database.Querier) error
	ListStatuses(ctx context.Context) ([]models.DeviceStatus, error)
	FindOpenRecord(ctx context.Context, device string, q database.Querier) (*models.DeviceOperationRecord, error)
	// InsertRecord returns errors.ErrRecordAlreadyOpen when the device
	// already has an open record.
	InsertRecord(ctx context.Context, record *models.DeviceOperationRecord, q database.Querier) error
	CloseRecord(ctx context.Context, id int64, end time.Time, duration int64, q database.Querier) error
	ListRecords(ctx context.Context, query models.DeviceRecordQuery) ([]models.DeviceOperationRecord, error)
}

// SensorDataRepository stores sensor snapshots.
type SensorDataRepository interface {
	Insert(ctx context.Context, snapshot *models.SensorSnapshot) error
	Latest(ctx context.Context) (*models.SensorSnapshot, error)
	Recent(ctx context.Context, limit int) ([]models.SensorSnapshot, error)
	Stats(ctx context.Context, since time.Time) (*models.SensorStats, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AlertRepository stores raised alerts.
type AlertRepository interface {
	database.Repository
	Insert(ctx context.Context, alert *models.AlertEvent, q database.Querier) error
	ClaimUnread(ctx context.Context, q database.Querier) ([]models.AlertEvent, error)
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)
}

// NotificationSettingsRepository stores the singleton threshold settings.
type NotificationSettingsRepository interface {
	Get(ctx context.Context) (*models.NotificationSettings, error)
	Update(ctx context.Context, settings *models.NotificationSettings) error
}

// LatestCache keeps the most recent snapshot out of the store's read path.
type LatestCache interface {
	GetLatest(ctx context.Context) (*models.SensorSnapshot, error)
	SetLatest(ctx context.Context, snapshot *models.SensorSnapshot) error
}
