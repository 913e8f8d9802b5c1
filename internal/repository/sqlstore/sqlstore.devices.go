package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/models"
)

const recordColumns = `id, device, status, start_time, end_time, duration, COALESCE(reason, '') AS reason`

type DeviceRepo struct {
	BaseRepo
}

func NewDeviceRepository(db database.DB) *DeviceRepo {
	return &DeviceRepo{BaseRepo: BaseRepo{db: db}}
}

func (r *DeviceRepo) UpsertStatus(ctx context.Context, status *models.DeviceStatus, q database.Querier) error {
	q = r.querier(q)
	query := q.Rebind(`
		INSERT INTO device_current_status (device, status, since, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (device) DO UPDATE SET
			status = excluded.status,
			since = excluded.since,
			updated_at = excluded.updated_at`)

	if _, err := q.ExecContext(ctx, query, status.Device, status.Status, status.Since, status.UpdatedAt); err != nil {
		return errors.NewDatabaseError("failed to upsert device status", err)
	}
	return nil
}

func (r *DeviceRepo) ListStatuses(ctx context.Context) ([]models.DeviceStatus, error) {
	statuses := []models.DeviceStatus{}
	query := `SELECT device, status, since, updated_at FROM device_current_status ORDER BY device`

	if err := r.db.GetDB().SelectContext(ctx, &statuses, query); err != nil {
		return nil, errors.NewDatabaseError("failed to list device status", err)
	}
	return statuses, nil
}

// FindOpenRecord returns the newest running interval of device, or nil.
func (r *DeviceRepo) FindOpenRecord(ctx context.Context, device string, q database.Querier) (*models.DeviceOperationRecord, error) {
	q = r.querier(q)
	record := &models.DeviceOperationRecord{}
	query := q.Rebind(`
		SELECT ` + recordColumns + `
		FROM device_operation_history
		WHERE device = ? AND status = 1 AND end_time IS NULL
		ORDER BY id DESC
		LIMIT 1`)

	if err := q.GetContext(ctx, record, query, device); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewDatabaseError("failed to find open operation record", err)
	}
	return record, nil
}

func (r *DeviceRepo) InsertRecord(ctx context.Context, record *models.DeviceOperationRecord, q database.Querier) error {
	q = r.querier(q)
	query := q.Rebind(`
		INSERT INTO device_operation_history (device, status, start_time, reason)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (device) WHERE end_time IS NULL DO NOTHING
		RETURNING id`)

	if err := q.GetContext(ctx, &record.ID, query, record.Device, record.Status, record.StartTime, record.Reason); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.ErrRecordAlreadyOpen
		}
		return errors.NewDatabaseError("failed to insert operation record", err)
	}
	return nil
}

func (r *DeviceRepo) CloseRecord(ctx context.Context, id int64, end time.Time, duration int64, q database.Querier) error {
	q = r.querier(q)
	query := q.Rebind(`UPDATE device_operation_history SET end_time = ?, duration = ? WHERE id = ?`)

	result, err := q.ExecContext(ctx, query, end, duration, id)
	if err != nil {
		return errors.NewDatabaseError("failed to close operation record", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("operation record not found", nil)
	}
	return nil
}

// ListRecords expects Sort and Order to be whitelisted by the caller.
func (r *DeviceRepo) ListRecords(ctx context.Context, query models.DeviceRecordQuery) ([]models.DeviceOperationRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if query.Device != "" {
		conditions = append(conditions, "device = ?")
		args = append(args, query.Device)
	}
	if query.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *query.Status)
	}
	if query.Reason != "" {
		conditions = append(conditions, "reason LIKE ?")
		args = append(args, "%"+query.Reason+"%")
	}
	if query.Start != nil && query.End != nil {
		conditions = append(conditions, "start_time BETWEEN ? AND ?")
		args = append(args, *query.Start, *query.End)
	}

	sb := strings.Builder{}
	sb.WriteString("SELECT " + recordColumns + " FROM device_operation_history")
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	sb.WriteString(fmt.Sprintf(" ORDER BY %s %s, id %s", query.Sort, strings.ToUpper(query.Order), strings.ToUpper(query.Order)))

	x := r.db.GetDB()
	records := []models.DeviceOperationRecord{}
	if err := x.SelectContext(ctx, &records, x.Rebind(sb.String()), args...); err != nil {
		return nil, errors.NewDatabaseError("failed to list operation history", err)
	}
	return records, nil
}
