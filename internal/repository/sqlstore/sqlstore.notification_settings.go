package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/models"
)

type NotificationSettingsRepo struct {
	db database.DB
}

func NewNotificationSettingsRepository(db database.DB) *NotificationSettingsRepo {
	return &NotificationSettingsRepo{db: db}
}

func (r *NotificationSettingsRepo) Get(ctx context.Context) (*models.NotificationSettings, error) {
	settings := &models.NotificationSettings{}
	query := `
		SELECT min_temp, max_temp, min_humid, max_humid, min_press, max_press,
			cold_alert, heat_alert, dry_alert, humid_alert, low_press_alert, high_press_alert
		FROM notification_settings
		WHERE id = 1`

	if err := r.db.GetDB().GetContext(ctx, settings, query); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("notification settings not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get notification settings", err)
	}
	return settings, nil
}

func (r *NotificationSettingsRepo) Update(ctx context.Context, settings *models.NotificationSettings) error {
	query := `
		UPDATE notification_settings SET
			min_temp = :min_temp,
			max_temp = :max_temp,
			min_humid = :min_humid,
			max_humid = :max_humid,
			min_press = :min_press,
			max_press = :max_press,
			cold_alert = :cold_alert,
			heat_alert = :heat_alert,
			dry_alert = :dry_alert,
			humid_alert = :humid_alert,
			low_press_alert = :low_press_alert,
			high_press_alert = :high_press_alert
		WHERE id = 1`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, settings)
	if err != nil {
		return errors.NewDatabaseError("failed to update notification settings", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("notification settings not found", nil)
	}
	return nil
}
