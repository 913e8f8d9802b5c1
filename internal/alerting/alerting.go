// FilePath: internal/alerting/alerting.go
package alerting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/events"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/gardenhub/server/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Evaluate compares a snapshot with the configured bounds. A category fires
// when its flag is on and the value lies strictly outside its bound. Missing
// readings and nil settings produce nothing.
func Evaluate(snapshot *models.SensorSnapshot, settings *models.NotificationSettings) []models.Alert {
	alerts := []models.Alert{}
	if snapshot == nil || settings == nil {
		return alerts
	}

	if t := snapshot.Temperature; t != nil {
		if settings.ColdAlert == 1 && *t < settings.MinTemp {
			alerts = append(alerts, models.Alert{Category: models.AlertCold, Message: "Temperature too low: " + format(*t) + "°C"})
		}
		if settings.HeatAlert == 1 && *t > settings.MaxTemp {
			alerts = append(alerts, models.Alert{Category: models.AlertHeat, Message: "Temperature too high: " + format(*t) + "°C"})
		}
	}
	if h := snapshot.Humidity; h != nil {
		if settings.DryAlert == 1 && *h < settings.MinHumid {
			alerts = append(alerts, models.Alert{Category: models.AlertDry, Message: "Humidity too low: " + format(*h) + "%"})
		}
		if settings.HumidAlert == 1 && *h > settings.MaxHumid {
			alerts = append(alerts, models.Alert{Category: models.AlertHumid, Message: "Humidity too high: " + format(*h) + "%"})
		}
	}
	if p := snapshot.Pressure; p != nil {
		if settings.LowPressAlert == 1 && *p < settings.MinPress {
			alerts = append(alerts, models.Alert{Category: models.AlertLowPress, Message: "Pressure too low: " + format(*p) + " hPa"})
		}
		if settings.HighPressAlert == 1 && *p > settings.MaxPress {
			alerts = append(alerts, models.Alert{Category: models.AlertHighPress, Message: "Pressure too high: " + format(*p) + " hPa"})
		}
	}
	return alerts
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Service stores raised alerts and hands them out once.
type Service struct {
	alerts   repository.AlertRepository
	settings repository.NotificationSettingsRepository
	events   events.Publisher
	now      func() time.Time
}

func NewService(alerts repository.AlertRepository, settings repository.NotificationSettingsRepository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		alerts:   alerts,
		settings: settings,
		events:   publisher,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record evaluates snapshot against the stored settings and appends every
// resulting alert as unread.
func (s *Service) Record(ctx context.Context, snapshot *models.SensorSnapshot) ([]models.AlertEvent, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	raised := Evaluate(snapshot, settings)
	if len(raised) == 0 {
		return nil, nil
	}

	now := s.now()
	stored := make([]models.AlertEvent, 0, len(raised))
	for _, a := range raised {
		evt := models.AlertEvent{Type: a.Category, Message: a.Message, Timestamp: now}
		if err := s.alerts.Insert(ctx, &evt, nil); err != nil {
			return stored, err
		}
		stored = append(stored, evt)
		s.events.Publish(events.AlertRaised, evt)
		nuts.L.Warnf("[Alerting] %s: %s", evt.Type, evt.Message)
	}
	return stored, nil
}

// FetchUnread returns the unread alerts oldest first and marks exactly
// those as read. A second call returns only alerts raised in between.
func (s *Service) FetchUnread(ctx context.Context) ([]models.AlertEvent, error) {
	return s.alerts.ClaimUnread(ctx, nil)
}

// Settings returns the stored thresholds. A missing row is a not-found error.
func (s *Service) Settings(ctx context.Context) (*models.NotificationSettings, error) {
	return s.settings.Get(ctx)
}

// UpdateSettings applies the fields present in update and returns the result.
func (s *Service) UpdateSettings(ctx context.Context, update models.NotificationSettingsUpdate) (*models.NotificationSettings, error) {
	if update.IsEmpty() {
		return nil, errors.NewValidationError("no settings provided", nil)
	}
	if err := validateFlags(update); err != nil {
		return nil, err
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	update.Apply(settings)

	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, err
	}
	nuts.L.Infof("[Alerting] Notification settings updated")
	return settings, nil
}

func validateFlags(u models.NotificationSettingsUpdate) error {
	flags := map[string]*int{
		"cold_alert":       u.ColdAlert,
		"heat_alert":       u.HeatAlert,
		"dry_alert":        u.DryAlert,
		"humid_alert":      u.HumidAlert,
		"low_press_alert":  u.LowPressAlert,
		"high_press_alert": u.HighPressAlert,
	}
	for name, v := range flags {
		if v != nil && *v != 0 && *v != 1 {
			return errors.NewValidationError(fmt.Sprintf("%s must be 0 or 1", name), nil)
		}
	}
	return nil
}
