// FilePath: internal/devicestatus/devicestatus.go
package devicestatus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/events"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/gardenhub/server/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Actuator takes the device pushes.
type Actuator interface {
	Enqueue(cmds ...models.PinCommand)
}

var sortColumns = map[string]bool{
	"device":     true,
	"status":     true,
	"start_time": true,
	"end_time":   true,
	"duration":   true,
	"reason":     true,
}

const (
	defaultSort  = "start_time"
	defaultOrder = "desc"
)

// Ledger records the current status of each device and its run intervals.
// A device has at most one open interval at a time.
type Ledger struct {
	devices  repository.DeviceRepository
	actuator Actuator
	events   events.Publisher
}

func New(devices repository.DeviceRepository, actuator Actuator, publisher events.Publisher) *Ledger {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Ledger{devices: devices, actuator: actuator, events: publisher}
}

// SetDeviceStatus switches device to status at now. Switching on opens an
// interval, switching off closes the latest open one.
func (l *Ledger) SetDeviceStatus(ctx context.Context, device string, status int, reason string, now time.Time) (int, error) {
	if !models.IsValidDevice(device) {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid device %q", device), errors.ErrInvalidDevice)
	}
	if status != 0 && status != 1 {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid status %d", status), errors.ErrInvalidStatus)
	}
	if strings.TrimSpace(reason) == "" {
		reason = models.DefaultDeviceReason
	}
	now = now.UTC()

	tx, err := l.devices.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := l.devices.UpsertStatus(ctx, &models.DeviceStatus{
		Device:    device,
		Status:    status,
		Since:     now,
		UpdatedAt: now,
	}, tx); err != nil {
		return 0, err
	}

	open, err := l.devices.FindOpenRecord(ctx, device, tx)
	if err != nil {
		return 0, err
	}

	switch status {
	case 1:
		if open != nil {
			nuts.L.Warnf("[DeviceStatus] %s already running since %s, keeping record %d", device, open.StartTime.Format(time.RFC3339), open.ID)
			break
		}
		record := &models.DeviceOperationRecord{Device: device, Status: 1, StartTime: now, Reason: reason}
		err := l.devices.InsertRecord(ctx, record, tx)
		if errors.IsAlreadyOpen(err) {
			nuts.L.Warnf("[DeviceStatus] %s already has an open record, not opening another", device)
			break
		}
		if err != nil {
			return 0, err
		}
	case 0:
		if open == nil {
			break
		}
		duration := int64(now.Sub(open.StartTime) / time.Second)
		if duration < 0 {
			duration = 0
		}
		if err := l.devices.CloseRecord(ctx, open.ID, now, duration, tx); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewDatabaseError("failed to commit transaction", err)
	}

	l.actuator.Enqueue(models.PinCommand{Pin: models.DeviceActuationPin[device], Value: float64(status)})
	l.events.Publish(events.DeviceChanged, events.DeviceChange{Device: device, Status: status, Reason: reason})

	nuts.L.Infof("[DeviceStatus] %s -> %d (%s)", device, status, reason)
	return status, nil
}

// ListOperationHistory returns the run intervals matching filters. Unknown
// sort or order values fall back to start_time desc.
func (l *Ledger) ListOperationHistory(ctx context.Context, filters models.DeviceHistoryFilters) ([]models.DeviceOperationRecord, error) {
	query, err := BuildQuery(filters)
	if err != nil {
		return nil, err
	}
	return l.devices.ListRecords(ctx, query)
}

// CurrentStatuses returns one entry per device ever switched.
func (l *Ledger) CurrentStatuses(ctx context.Context) ([]models.DeviceStatus, error) {
	return l.devices.ListStatuses(ctx)
}

// BuildQuery validates raw filters. The date range only applies when both
// ends are given.
func BuildQuery(filters models.DeviceHistoryFilters) (models.DeviceRecordQuery, error) {
	query := models.DeviceRecordQuery{
		Device: strings.TrimSpace(filters.Device),
		Reason: strings.TrimSpace(filters.Reason),
		Sort:   defaultSort,
		Order:  defaultOrder,
	}

	if s := strings.TrimSpace(filters.Status); s != "" {
		status, err := strconv.Atoi(s)
		if err != nil {
			return query, errors.NewValidationError(fmt.Sprintf("invalid status %q", s), errors.ErrInvalidStatus)
		}
		query.Status = &status
	}

	if filters.StartDate != "" && filters.EndDate != "" {
		start, err := models.ParseFilterDate(filters.StartDate)
		if err != nil {
			return query, errors.NewValidationError("invalid start_date", err)
		}
		end, err := models.ParseFilterDate(filters.EndDate)
		if err != nil {
			return query, errors.NewValidationError("invalid end_date", err)
		}
		query.Start, query.End = &start, &end
	}

	if sort := strings.ToLower(strings.TrimSpace(filters.Sort)); sortColumns[sort] {
		query.Sort = sort
	}
	if order := strings.ToLower(strings.TrimSpace(filters.Order)); order == "asc" || order == "desc" {
		query.Order = order
	}
	return query, nil
}
