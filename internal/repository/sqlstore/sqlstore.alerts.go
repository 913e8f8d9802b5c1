package sqlstore

import (
	"context"
	"sort"
	"time"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/models"
)

type AlertRepo struct {
	BaseRepo
}

func NewAlertRepository(db database.DB) *AlertRepo {
	return &AlertRepo{BaseRepo: BaseRepo{db: db}}
}

func (r *AlertRepo) Insert(ctx context.Context, alert *models.AlertEvent, q database.Querier) error {
	q = r.querier(q)
	query := q.Rebind(`
		INSERT INTO alerts (type, message, timestamp, is_read)
		VALUES (?, ?, ?, ?)
		RETURNING id`)

	if err := q.GetContext(ctx, &alert.ID, query, alert.Type, alert.Message, alert.Timestamp, alert.IsRead); err != nil {
		return errors.NewDatabaseError("failed to insert alert", err)
	}
	return nil
}

// ClaimUnread marks every unread alert as read and returns them oldest
// first. The claim is a single statement, so concurrent callers never
// receive the same alert.
func (r *AlertRepo) ClaimUnread(ctx context.Context, q database.Querier) ([]models.AlertEvent, error) {
	q = r.querier(q)
	alerts := []models.AlertEvent{}
	query := `UPDATE alerts SET is_read = 1 WHERE is_read = 0 RETURNING id, type, message, timestamp, is_read`

	if err := q.SelectContext(ctx, &alerts, query); err != nil {
		return nil, errors.NewDatabaseError("failed to claim unread alerts", err)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ID < alerts[j].ID })
	return alerts, nil
}

func (r *AlertRepo) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	x := r.db.GetDB()
	result, err := x.ExecContext(ctx, x.Rebind(`DELETE FROM alerts WHERE is_read = 1 AND timestamp < ?`), before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete read alerts", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}
	return rows, nil
}
