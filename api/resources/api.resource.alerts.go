package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/gardenservice"
	"github.com/gardenhub/server/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// AlertHandlers serves alerts, their thresholds and the cloud connection check.
type AlertHandlers struct {
	service *gardenservice.GardenService
}

// @Summary Unread alerts
// @Description Returns unread alerts oldest first and marks them read
// @Tags alerts
// @Produce json
// @Success 200 {array} models.AlertEvent
// @Router /alerts [get]
func (h *AlertHandlers) Alerts(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	alerts, err := h.service.FetchAlerts(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, alerts)
}

// @Summary Notification settings
// @Tags alerts
// @Produce json
// @Success 200 {object} models.NotificationSettings
// @Failure 404 {object} errors.APIError
// @Router /notification-settings [get]
func (h *AlertHandlers) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	settings, err := h.service.NotificationSettings(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

// @Summary Update notification settings
// @Description Updates the provided fields only; unknown fields are ignored
// @Tags alerts
// @Accept json
// @Produce json
// @Param body body models.NotificationSettingsUpdate true "Fields to change"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Router /notification-settings [post]
func (h *AlertHandlers) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var update models.NotificationSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	if _, err := h.service.UpdateNotificationSettings(r.Context(), update); err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// @Summary Device cloud connectivity
// @Description Calls the read channel and writes a neutral pin; the token is never returned
// @Tags system
// @Produce json
// @Success 200 {object} cloud.ConnectionReport
// @Failure 503 {object} cloud.ConnectionReport
// @Router /test-cloud [get]
func (h *AlertHandlers) TestCloud(w http.ResponseWriter, r *http.Request) {
	result := h.service.TestCloud(r.Context())

	code := http.StatusOK
	if !result.OK() {
		code = http.StatusServiceUnavailable
		nuts.L.Warnf("[API] Cloud connection check failed: read=%d write=%d", result.ReadStatus, result.WriteStatus)
	}
	respondWithJSON(w, code, result)
}
