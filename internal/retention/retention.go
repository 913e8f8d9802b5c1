package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/gardenhub/server/hub/internal/config"
	"github.com/gardenhub/server/hub/internal/events"
	nuts "github.com/vaudience/go-nuts"
)

// SnapshotPruner deletes snapshots older than a cutoff.
type SnapshotPruner interface {
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AlertPruner deletes read alerts older than a cutoff.
type AlertPruner interface {
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)
}

// Service periodically removes old snapshots and delivered alerts.
// Unread alerts are never pruned.
type Service struct {
	snapshots     SnapshotPruner
	alerts        AlertPruner
	events        events.Publisher
	interval      time.Duration
	snapshotDays  int
	readAlertDays int
	now           func() time.Time
}

// New creates a new retention Service
func New(snapshots SnapshotPruner, alerts AlertPruner, publisher events.Publisher, cfg config.RetentionConfig) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Service{
		snapshots:     snapshots,
		alerts:        alerts,
		events:        publisher,
		interval:      interval,
		snapshotDays:  cfg.SensorDataDays,
		readAlertDays: cfg.ReadAlertDays,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether any retention window is configured.
func (s *Service) Enabled() bool {
	return s.snapshotDays > 0 || s.readAlertDays > 0
}

// Run prunes once per interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.Enabled() {
		nuts.L.Infof("[Retention] Disabled, keeping all rows")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Prune(ctx); err != nil {
			nuts.L.Errorf("[Retention] Prune failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Prune deletes everything past its retention window.
func (s *Service) Prune(ctx context.Context) (events.Pruned, error) {
	var pruned events.Pruned
	now := s.now()

	if s.snapshotDays > 0 {
		n, err := s.snapshots.DeleteBefore(ctx, now.AddDate(0, 0, -s.snapshotDays))
		if err != nil {
			return pruned, fmt.Errorf("failed to prune snapshots: %w", err)
		}
		pruned.Snapshots = n
	}

	if s.readAlertDays > 0 {
		n, err := s.alerts.DeleteReadBefore(ctx, now.AddDate(0, 0, -s.readAlertDays))
		if err != nil {
			return pruned, fmt.Errorf("failed to prune alerts: %w", err)
		}
		pruned.Alerts = n
	}

	if pruned.Snapshots > 0 || pruned.Alerts > 0 {
		s.events.Publish(events.RetentionPruned, pruned)
		nuts.L.Infof("[Retention] Pruned %d snapshot(s), %d alert(s)", pruned.Snapshots, pruned.Alerts)
	}
	return pruned, nil
}
