package api

import (
	"net/http"
	"os"

	"github.com/gardenhub/server/hub/api/resources"
	"github.com/gardenhub/server/hub/internal/config"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type Router struct {
	router    *mux.Router
	handler   http.Handler
	resources *resources.Resources
}

// NewRouter registers every resource and wraps the mux with recovery,
// access logging and CORS.
func NewRouter(res *resources.Resources, cfg config.ServerConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: res,
	}

	r.setupRoutes()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	r.handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.LoggingHandler(os.Stdout, cors(r.router)),
	)
	return r
}

func (r *Router) setupRoutes() {
	api := r.router

	// System
	api.HandleFunc("/", r.resources.Banner).Methods(http.MethodGet)
	if r.resources.HealthCheck != nil {
		api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	}
	api.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)
	api.HandleFunc("/test-cloud", r.resources.Alerts.TestCloud).Methods(http.MethodGet)

	// Readings
	api.HandleFunc("/latest", r.resources.Readings.Latest).Methods(http.MethodGet)
	api.HandleFunc("/history", r.resources.Readings.History).Methods(http.MethodGet)
	api.HandleFunc("/stats", r.resources.Readings.Stats).Methods(http.MethodGet)

	// Controls
	api.HandleFunc("/current-settings", r.resources.Controls.CurrentSettings).Methods(http.MethodGet)
	api.HandleFunc("/set-smart-param", r.resources.Controls.SetSmartParam).Methods(http.MethodPost)
	api.HandleFunc("/control-history", r.resources.Controls.ControlHistory).Methods(http.MethodGet)
	api.HandleFunc("/smart-status/{device}", r.resources.Controls.SmartStatus).Methods(http.MethodGet)

	// Devices
	api.HandleFunc("/control-device", r.resources.Devices.ControlDevice).Methods(http.MethodPost)
	api.HandleFunc("/device-history", r.resources.Devices.DeviceHistory).Methods(http.MethodGet)
	api.HandleFunc("/device-history/export", r.resources.Devices.ExportDeviceHistory).Methods(http.MethodGet)
	api.HandleFunc("/device-status", r.resources.Devices.DeviceStatus).Methods(http.MethodGet)

	// Alerts
	api.HandleFunc("/alerts", r.resources.Alerts.Alerts).Methods(http.MethodGet)
	api.HandleFunc("/notification-settings", r.resources.Alerts.GetNotificationSettings).Methods(http.MethodGet)
	api.HandleFunc("/notification-settings", r.resources.Alerts.UpdateNotificationSettings).Methods(http.MethodPost)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
