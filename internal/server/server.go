// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gardenhub/server/hub/api"
	"github.com/gardenhub/server/hub/api/resources"
	"github.com/gardenhub/server/hub/internal/actuation"
	"github.com/gardenhub/server/hub/internal/alerting"
	"github.com/gardenhub/server/hub/internal/cloud"
	"github.com/gardenhub/server/hub/internal/config"
	"github.com/gardenhub/server/hub/internal/database"
	"github.com/gardenhub/server/hub/internal/devicestatus"
	"github.com/gardenhub/server/hub/internal/events"
	"github.com/gardenhub/server/hub/internal/gardenservice"
	"github.com/gardenhub/server/hub/internal/influx"
	"github.com/gardenhub/server/hub/internal/ingestion"
	"github.com/gardenhub/server/hub/internal/monitoring"
	"github.com/gardenhub/server/hub/internal/repository"
	"github.com/gardenhub/server/hub/internal/repository/cache"
	"github.com/gardenhub/server/hub/internal/repository/sqlstore"
	"github.com/gardenhub/server/hub/internal/retention"
	"github.com/gardenhub/server/hub/internal/smartcontrol"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server and the background workers behind it
type Server struct {
	config        *config.Config
	srv           *http.Server
	db            database.DB
	bus           *events.Bus
	dispatcher    *actuation.Dispatcher
	ingestion     *ingestion.Loop
	retention     *retention.Service
	monitoring    *monitoring.Service
	gardenservice *gardenservice.GardenService

	workers sync.WaitGroup
	closers []func()
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Start wires the components, launches the workers and serves until
// SIGINT or SIGTERM.
func (s *Server) Start() error {
	s.initialize()

	router := s.setupRoutes()
	s.srv.Handler = router

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.startWorkers(ctx)

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown(cancel)
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown(stopWorkers context.CancelFunc) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	stopWorkers()
	s.workers.Wait()
	s.dispatcher.Wait()

	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes() http.Handler {
	res := resources.NewResources(s.gardenservice)
	res.SetHealthCheck(s.handleHealth())
	return api.NewRouter(res, s.config.Server)
}

// handleHealth reports the version and whether the store answers.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		if err := s.db.Ping(ctx); err != nil {
			nuts.L.Errorf("[Server] Health check failed: %v", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		w.Write([]byte(`{"status":"` + status + `","version":"` + nuts.GetVersion() + `"}`))
	}
}

func (s *Server) startWorkers(ctx context.Context) {
	s.dispatcher.Start(ctx)

	if s.config.Ingestion.Enabled {
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			s.ingestion.Run(ctx)
		}()
	} else {
		nuts.L.Warnf("[Server] Ingestion disabled")
	}

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		s.retention.Run(ctx)
	}()
}

// initialize opens the store and builds every component. Store failures
// are fatal; the optional sinks only log.
func (s *Server) initialize() {
	s.db = initDatabase(s.config.Database)
	s.closers = append(s.closers, func() { s.db.Close() })

	repos := sqlstore.New(s.db)
	s.bus = events.NewBus()

	cloudClient := cloud.New(s.config.Cloud)
	s.dispatcher = actuation.New(cloudClient, s.config.Actuation)

	s.monitoring = monitoring.NewService(s.dispatcher)
	s.monitoring.Attach(s.bus)
	s.setupEventLogging()

	if s.config.MQTT.Enabled {
		mqttPub, err := events.ConnectMQTT(s.config.MQTT)
		if err != nil {
			nuts.L.Errorf("[Server] MQTT disabled: %v", err)
		} else {
			mqttPub.Attach(s.bus)
			s.closers = append(s.closers, mqttPub.Close)
		}
	}

	var latest repository.LatestCache
	if s.config.Redis.Enabled {
		client, err := cache.Connect(context.Background(), s.config.Redis)
		if err != nil {
			nuts.L.Errorf("[Server] Redis cache disabled: %v", err)
		} else {
			redisCache := cache.NewRedisCache(client, s.config.Redis.TTL)
			latest = redisCache
			s.closers = append(s.closers, func() { redisCache.Close() })
		}
	}

	opts := []ingestion.Option{ingestion.WithPublisher(s.bus)}
	if latest != nil {
		opts = append(opts, ingestion.WithCache(latest))
	}
	if s.config.InfluxDB.Enabled {
		sink, err := influx.Connect(s.config.InfluxDB)
		if err != nil {
			nuts.L.Errorf("[Server] InfluxDB mirror disabled: %v", err)
		} else {
			opts = append(opts, ingestion.WithMirror(sink))
			s.closers = append(s.closers, sink.Close)
		}
	}

	controls := smartcontrol.New(repos.Controls, s.dispatcher, s.bus)
	devices := devicestatus.New(repos.Devices, s.dispatcher, s.bus)
	alerts := alerting.NewService(repos.Alerts, repos.NotificationSettings, s.bus)

	s.ingestion = ingestion.New(cloudClient, repos.SensorData, alerts, s.config.Ingestion, opts...)
	s.retention = retention.New(repos.SensorData, repos.Alerts, s.bus, s.config.Retention)

	s.gardenservice = gardenservice.New(
		repos.SensorData, latest, controls, devices, alerts,
		s.dispatcher, cloudClient, s.monitoring,
	)
	if err := s.gardenservice.Validate(); err != nil {
		nuts.L.Fatalf("[Server] Invalid service wiring: %v", err)
	}
}

// setupEventLogging logs the events operators care about.
func (s *Server) setupEventLogging() {
	s.bus.Subscribe(events.DeviceChanged, func(evt events.Event) {
		if change, ok := evt.Payload.(events.DeviceChange); ok {
			nuts.L.Infof("[Events] Device %s switched to %d (%s)", change.Device, change.Status, change.Reason)
		}
	})
	s.bus.Subscribe(events.RetentionPruned, func(evt events.Event) {
		if pruned, ok := evt.Payload.(events.Pruned); ok {
			nuts.L.Infof("[Events] Retention removed %d snapshot(s) and %d alert(s)", pruned.Snapshots, pruned.Alerts)
		}
	})
}

func initDatabase(cfg config.DatabaseConfig) database.DB {
	db, err := database.Open(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to open database: %v", err)
	}

	// Set up connection timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping database: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		nuts.L.Fatalf("[Server] Failed to migrate database: %v", err)
	}
	return db
}
