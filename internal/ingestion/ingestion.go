// FilePath: internal/ingestion/ingestion.go
package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/gardenhub/server/hub/internal/config"
	"github.com/gardenhub/server/hub/internal/events"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/gardenhub/server/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Fetcher pulls one reading from the sensor cloud.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*models.SensorSnapshot, error)
}

// Store appends snapshots.
type Store interface {
	Insert(ctx context.Context, snapshot *models.SensorSnapshot) error
}

// Mirror receives a copy of every stored snapshot.
type Mirror interface {
	MirrorSnapshot(snapshot *models.SensorSnapshot)
}

// AlertRecorder evaluates a stored snapshot and appends its alerts.
type AlertRecorder interface {
	Record(ctx context.Context, snapshot *models.SensorSnapshot) ([]models.AlertEvent, error)
}

// Loop polls the sensor cloud until its context is cancelled.
type Loop struct {
	fetcher  Fetcher
	store    Store
	alerts   AlertRecorder
	cache    repository.LatestCache
	mirror   Mirror
	events   events.Publisher
	interval time.Duration
	backoff  time.Duration
	now      func() time.Time
}

// Option configures the optional sinks of a Loop.
type Option func(*Loop)

func WithCache(cache repository.LatestCache) Option {
	return func(l *Loop) { l.cache = cache }
}

func WithMirror(mirror Mirror) Option {
	return func(l *Loop) { l.mirror = mirror }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(l *Loop) { l.events = publisher }
}

func New(fetcher Fetcher, store Store, alerts AlertRecorder, cfg config.IngestionConfig, opts ...Option) *Loop {
	l := &Loop{
		fetcher:  fetcher,
		store:    store,
		alerts:   alerts,
		events:   events.Nop{},
		interval: cfg.Interval,
		backoff:  cfg.ErrorBackoff,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if l.interval <= 0 {
		l.interval = 60 * time.Second
	}
	if l.backoff <= 0 {
		l.backoff = 10 * time.Second
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run performs a cycle immediately and then one per interval. After a
// failed cycle it waits the shorter error backoff instead.
func (l *Loop) Run(ctx context.Context) {
	nuts.L.Infof("[Ingestion] Polling every %s", l.interval)
	for {
		wait := l.interval
		if err := l.safeCycle(ctx); err != nil {
			nuts.L.Errorf("[Ingestion] Cycle failed: %v", err)
			wait = l.backoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			nuts.L.Infof("[Ingestion] Stopped")
			return
		case <-timer.C:
		}
	}
}

func (l *Loop) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in cycle: %v", r)
		}
	}()
	_, err = l.Cycle(ctx)
	return err
}

// Cycle fetches, stores and evaluates one snapshot. The snapshot is
// stamped with the server clock. A fetch failure writes nothing.
func (l *Loop) Cycle(ctx context.Context) (*models.SensorSnapshot, error) {
	snapshot, err := l.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	snapshot.Timestamp = l.now()

	if err := l.store.Insert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	if l.cache != nil {
		if err := l.cache.SetLatest(ctx, snapshot); err != nil {
			nuts.L.Warnf("[Ingestion] Failed to cache latest reading: %v", err)
		}
	}
	if l.mirror != nil {
		l.mirror.MirrorSnapshot(snapshot)
	}

	l.events.Publish(events.ReadingStored, *snapshot)

	raised, err := l.alerts.Record(ctx, snapshot)
	if err != nil {
		return snapshot, fmt.Errorf("alerts: %w", err)
	}
	if len(raised) > 0 {
		nuts.L.Infof("[Ingestion] Reading %d raised %d alert(s)", snapshot.ID, len(raised))
	}
	return snapshot, nil
}
