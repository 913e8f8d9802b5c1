package gardenservice

import (
	"context"

	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// SmartStatus reports whether smart control is active for a device.
type SmartStatus struct {
	Device  string `json:"device"`
	Enabled bool   `json:"enabled"`
}

// CurrentSettings returns every control pin value with defaults filled in.
func (s *GardenService) CurrentSettings(ctx context.Context) (map[string]float64, error) {
	return s.Controls.CurrentSettings(ctx)
}

// SetSmartParam stores pin=value, runs the smart-control cascade and then
// pushes the pin itself to the device cloud. The cascade is queued first
// and the pusher delivers the pin after it. A failed push leaves the local
// write in place and returns a partial success error.
func (s *GardenService) SetSmartParam(ctx context.Context, pin string, value float64) error {
	if _, err := s.Controls.SetControlPoint(ctx, pin, value); err != nil {
		return err
	}

	if err := s.Pusher.PushNow(ctx, pin, value); err != nil {
		nuts.L.Errorf("[GardenService] Failed to push %s=%v: %v", pin, value, err)
		return errors.NewPartialSuccessError("Saved to local database but failed to update the device cloud", err)
	}
	return nil
}

// ControlHistory returns the newest control writes.
func (s *GardenService) ControlHistory(ctx context.Context, query models.ControlHistoryQuery) ([]models.ControlHistoryEntry, error) {
	return s.Controls.History(ctx, query)
}

// SmartControlStatus reports whether both the global and the device's own
// smart control are on.
func (s *GardenService) SmartControlStatus(ctx context.Context, device string) (*SmartStatus, error) {
	enabled, err := s.Controls.IsSmartControlEnabled(ctx, device)
	if err != nil {
		return nil, err
	}
	return &SmartStatus{Device: device, Enabled: enabled}, nil
}
