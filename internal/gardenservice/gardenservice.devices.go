package gardenservice

import (
	"context"

	"github.com/gardenhub/server/hub/internal/models"
)

// ControlDevice switches a device and returns its new status.
func (s *GardenService) ControlDevice(ctx context.Context, device string, status int, reason string) (int, error) {
	return s.Devices.SetDeviceStatus(ctx, device, status, reason, s.now())
}

func (s *GardenService) DeviceHistory(ctx context.Context, filters models.DeviceHistoryFilters) ([]models.DeviceOperationRecord, error) {
	return s.Devices.ListOperationHistory(ctx, filters)
}

func (s *GardenService) DeviceStatuses(ctx context.Context) ([]models.DeviceStatus, error) {
	return s.Devices.CurrentStatuses(ctx)
}
