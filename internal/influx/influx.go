// FilePath: internal/influx/influx.go
package influx

import (
	"context"
	"fmt"
	"time"

	"github.com/gardenhub/server/hub/internal/config"
	"github.com/gardenhub/server/hub/internal/models"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	nuts "github.com/vaudience/go-nuts"
)

const (
	measurement    = "garden_sensors"
	connectTimeout = 10 * time.Second
)

// Sink mirrors stored snapshots to InfluxDB. Writes are batched and
// non-blocking; failures are logged from the error channel.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
}

// Connect pings the server in cfg and prepares the batched write API.
func Connect(cfg config.InfluxDBConfig) (*Sink, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb ping failed: %w", err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("influxdb server not healthy")
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			nuts.L.Errorf("[Influx] Write failed: %v", err)
		}
	}()

	nuts.L.Infof("[Influx] Mirroring snapshots to %s (%s/%s)", cfg.URL, cfg.Org, cfg.Bucket)
	return &Sink{client: client, writeAPI: writeAPI}, nil
}

// MirrorSnapshot queues snapshot as a point.
func (s *Sink) MirrorSnapshot(snapshot *models.SensorSnapshot) {
	if point := SnapshotPoint(snapshot); point != nil {
		s.writeAPI.WritePoint(point)
	}
}

func (s *Sink) Close() {
	s.writeAPI.Flush()
	s.client.Close()
}

// SnapshotPoint converts a snapshot into a point carrying only the
// reported fields. A snapshot without any value yields nil.
func SnapshotPoint(snapshot *models.SensorSnapshot) *write.Point {
	fields := map[string]interface{}{}
	add := func(name string, v *float64) {
		if v != nil {
			fields[name] = *v
		}
	}
	add("soil_moisture", snapshot.SoilMoisture)
	add("temperature", snapshot.Temperature)
	add("humidity", snapshot.Humidity)
	add("light", snapshot.Light)
	add("pressure", snapshot.Pressure)

	if len(fields) == 0 {
		return nil
	}
	return write.NewPoint(measurement, map[string]string{"source": "cloud"}, fields, snapshot.Timestamp)
}
