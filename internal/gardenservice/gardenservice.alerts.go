package gardenservice

import (
	"context"

	"github.com/gardenhub/server/hub/internal/cloud"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/gardenhub/server/hub/internal/monitoring"
)

// FetchAlerts hands out the unread alerts and marks them read.
func (s *GardenService) FetchAlerts(ctx context.Context) ([]models.AlertEvent, error) {
	return s.Alerts.FetchUnread(ctx)
}

func (s *GardenService) NotificationSettings(ctx context.Context) (*models.NotificationSettings, error) {
	return s.Alerts.Settings(ctx)
}

func (s *GardenService) UpdateNotificationSettings(ctx context.Context, update models.NotificationSettingsUpdate) (*models.NotificationSettings, error) {
	return s.Alerts.UpdateSettings(ctx, update)
}

// TestCloud checks both device cloud channels.
func (s *GardenService) TestCloud(ctx context.Context) cloud.ConnectionReport {
	return s.Cloud.CheckConnection(ctx)
}

// MetricsSnapshot returns the event counters.
func (s *GardenService) MetricsSnapshot() monitoring.Metrics {
	return s.Metrics.Snapshot()
}
