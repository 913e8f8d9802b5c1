package gardenservice

import (
	"context"
	"math"
	"time"

	"github.com/gardenhub/server/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	historyLimit = 50
	statsWindow  = 24 * time.Hour
)

// LatestReading returns the newest snapshot, preferring the cache. It
// returns nil when nothing was stored yet.
func (s *GardenService) LatestReading(ctx context.Context) (*models.SensorSnapshot, error) {
	if s.Cache != nil {
		cached, err := s.Cache.GetLatest(ctx)
		if err != nil {
			nuts.L.Warnf("[GardenService] Latest reading cache unavailable: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}
	return s.SensorData.Latest(ctx)
}

// RecentReadings returns the last snapshots, newest first.
func (s *GardenService) RecentReadings(ctx context.Context) ([]models.SensorSnapshot, error) {
	return s.SensorData.Recent(ctx, historyLimit)
}

// Stats aggregates the last 24 hours, rounded to one decimal.
func (s *GardenService) Stats(ctx context.Context) (*models.SensorStats, error) {
	stats, err := s.SensorData.Stats(ctx, s.now().Add(-statsWindow))
	if err != nil {
		return nil, err
	}

	for _, v := range []*float64{
		&stats.AvgSoil, &stats.AvgTemp, &stats.AvgHumidity, &stats.AvgLight, &stats.AvgPressure,
		&stats.MaxTemp, &stats.MinTemp, &stats.MaxHumidity, &stats.MinHumidity,
	} {
		*v = math.Round(*v*10) / 10
	}
	return stats, nil
}
