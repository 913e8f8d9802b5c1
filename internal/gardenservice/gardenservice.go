package gardenservice

import (
	"context"
	"time"

	"github.com/gardenhub/server/hub/internal/alerting"
	"github.com/gardenhub/server/hub/internal/cloud"
	"github.com/gardenhub/server/hub/internal/devicestatus"
	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/monitoring"
	"github.com/gardenhub/server/hub/internal/repository"
	"github.com/gardenhub/server/hub/internal/smartcontrol"
)

// Pusher writes a pin to the device cloud and waits for the answer.
type Pusher interface {
	PushNow(ctx context.Context, pin string, value float64) error
}

// ConnectionChecker checks the device cloud channels.
type ConnectionChecker interface {
	CheckConnection(ctx context.Context) cloud.ConnectionReport
}

// GardenService contains all components and service-wide dependencies
// behind the HTTP resources.
type GardenService struct {
	SensorData repository.SensorDataRepository
	Cache      repository.LatestCache
	Controls   *smartcontrol.Coordinator
	Devices    *devicestatus.Ledger
	Alerts     *alerting.Service
	Pusher     Pusher
	Cloud      ConnectionChecker
	Metrics    *monitoring.Service

	now func() time.Time
}

// New creates a new GardenService instance. Cache may be nil.
func New(
	sensorData repository.SensorDataRepository,
	cache repository.LatestCache,
	controls *smartcontrol.Coordinator,
	devices *devicestatus.Ledger,
	alerts *alerting.Service,
	pusher Pusher,
	checker ConnectionChecker,
	metrics *monitoring.Service,
) *GardenService {
	return &GardenService{
		SensorData: sensorData,
		Cache:      cache,
		Controls:   controls,
		Devices:    devices,
		Alerts:     alerts,
		Pusher:     pusher,
		Cloud:      checker,
		Metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks if all required components are initialized
func (s *GardenService) Validate() error {
	if s.SensorData == nil {
		return ErrMissingComponent("sensorData")
	}
	if s.Controls == nil {
		return ErrMissingComponent("controls")
	}
	if s.Devices == nil {
		return ErrMissingComponent("devices")
	}
	if s.Alerts == nil {
		return ErrMissingComponent("alerts")
	}
	if s.Pusher == nil {
		return ErrMissingComponent("pusher")
	}
	if s.Cloud == nil {
		return ErrMissingComponent("cloud")
	}
	if s.Metrics == nil {
		return ErrMissingComponent("metrics")
	}
	return nil
}

func ErrMissingComponent(name string) error {
	return errors.NewInternalError("missing component: "+name, nil)
}
