package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/models"
)

type ControlRepo struct {
	BaseRepo
}

func NewControlRepository(db database.DB) *ControlRepo {
	return &ControlRepo{BaseRepo: BaseRepo{db: db}}
}

func (r *ControlRepo) InsertHistory(ctx context.Context, entry *models.ControlHistoryEntry, q database.Querier) error {
	q = r.querier(q)
	query := q.Rebind(`
		INSERT INTO control_history (pin, value, description, timestamp)
		VALUES (?, ?, ?, ?)
		RETURNING id`)

	if err := q.GetContext(ctx, &entry.ID, query, entry.Pin, entry.Value, entry.Description, entry.Timestamp); err != nil {
		return errors.NewDatabaseError("failed to insert control history", err)
	}
	return nil
}

func (r *ControlRepo) UpsertControlPoint(ctx context.Context, point *models.ControlPoint, q database.Querier) error {
	q = r.querier(q)
	query := q.Rebind(`
		INSERT INTO current_settings (pin, value, description, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (pin) DO UPDATE SET
			value = excluded.value,
			description = excluded.description,
			updated_at = excluded.updated_at`)

	if _, err := q.ExecContext(ctx, query, point.Pin, point.Value, point.Description, point.UpdatedAt); err != nil {
		return errors.NewDatabaseError("failed to upsert control point", err)
	}
	return nil
}

// GetControlValue returns the current value of pin and whether it exists.
func (r *ControlRepo) GetControlValue(ctx context.Context, pin string, q database.Querier) (float64, bool, error) {
	q = r.querier(q)
	var value float64
	err := q.GetContext(ctx, &value, q.Rebind(`SELECT value FROM current_settings WHERE pin = ?`), pin)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, errors.NewDatabaseError("failed to get control value", err)
	}
	return value, true, nil
}

func (r *ControlRepo) ListControlPoints(ctx context.Context) ([]models.ControlPoint, error) {
	points := []models.ControlPoint{}
	query := `SELECT pin, value, COALESCE(description, '') AS description, updated_at FROM current_settings ORDER BY pin`

	if err := r.db.GetDB().SelectContext(ctx, &points, query); err != nil {
		return nil, errors.NewDatabaseError("failed to list control points", err)
	}
	return points, nil
}

func (r *ControlRepo) ListHistory(ctx context.Context, limit int) ([]models.ControlHistoryEntry, error) {
	entries := []models.ControlHistoryEntry{}
	x := r.db.GetDB()
	query := x.Rebind(`
		SELECT id, pin, value, COALESCE(description, '') AS description, timestamp
		FROM control_history
		ORDER BY id DESC
		LIMIT ?`)

	if err := x.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, errors.NewDatabaseError("failed to list control history", err)
	}
	return entries, nil
}

// GetRemembered returns the remembered intent of pin, 0 when never set.
func (r *ControlRepo) GetRemembered(ctx context.Context, pin string, q database.Querier) (int, error) {
	q = r.querier(q)
	var value int
	err := q.GetContext(ctx, &value, q.Rebind(`SELECT value FROM remembered_smart_controls WHERE pin = ?`), pin)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, errors.NewDatabaseError("failed to get remembered smart control", err)
	}
	return value, nil
}

func (r *ControlRepo) SetRemembered(ctx context.Context, state *models.RememberedSmartState, q database.Querier) error {
	q = r.querier(q)
	query := q.Rebind(`
		INSERT INTO remembered_smart_controls (pin, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (pin) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`)

	if _, err := q.ExecContext(ctx, query, state.Pin, state.Value, state.UpdatedAt); err != nil {
		return errors.NewDatabaseError("failed to remember smart control", err)
	}
	return nil
}
