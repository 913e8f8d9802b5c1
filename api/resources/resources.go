// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/gardenservice"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Readings    *ReadingHandlers
	Controls    *ControlHandlers
	Devices     *DeviceHandlers
	Alerts      *AlertHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *gardenservice.GardenService) *Resources {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Resources{
		Readings: &ReadingHandlers{service: svc},
		Controls: &ControlHandlers{service: svc, decoder: decoder},
		Devices:  &DeviceHandlers{service: svc, decoder: decoder},
		Alerts:   &AlertHandlers{service: svc},
		Metrics: func(w http.ResponseWriter, r *http.Request) {
			respondWithJSON(w, http.StatusOK, svc.MetricsSnapshot())
		},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}

// Banner answers GET / so a browser pointed at the hub sees it is alive.
func (r *Resources) Banner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Garden hub API is running. Use /latest, /history or /stats.\n"))
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// fail converts any service error into an APIError tagged with requestID.
func fail(w http.ResponseWriter, err error, requestID string) {
	respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
}
