package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/gardenservice"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

// ControlHandlers serves the control pins and smart control.
type ControlHandlers struct {
	service *gardenservice.GardenService
	decoder *schema.Decoder
}

type smartParamRequest struct {
	Pin   string   `json:"pin"`
	Value *float64 `json:"value"`
}

// @Summary Current control settings
// @Description Value of every control pin, defaults filled in
// @Tags controls
// @Produce json
// @Success 200 {object} map[string]number
// @Router /current-settings [get]
func (h *ControlHandlers) CurrentSettings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	settings, err := h.service.CurrentSettings(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

// @Summary Set a smart control parameter
// @Description Stores the pin, runs the smart-control cascade and pushes the pin to the device cloud
// @Tags controls
// @Accept json
// @Produce json
// @Param body body smartParamRequest true "Pin and value"
// @Success 200 {object} map[string]string
// @Success 207 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Router /set-smart-param [post]
func (h *ControlHandlers) SetSmartParam(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req smartParamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.Pin == "" || req.Value == nil {
		respondWithError(w, errors.NewValidationError("Missing pin or value", nil).WithRequestID(requestID))
		return
	}

	err := h.service.SetSmartParam(r.Context(), req.Pin, *req.Value)
	if errors.IsPartialSuccess(err) {
		apiErr := errors.AsAPIError(err)
		nuts.L.Warnf("[API] %s: %s", apiErr.Message, apiErr.Cause())
		respondWithJSON(w, http.StatusMultiStatus, map[string]string{
			"status":  "partial_success",
			"message": apiErr.Message,
			"error":   apiErr.Cause(),
		})
		return
	}
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// @Summary Control history
// @Description Newest control writes including cascaded ones
// @Tags controls
// @Produce json
// @Param limit query int false "Number of entries (default 50, max 1000)"
// @Success 200 {array} models.ControlHistoryEntry
// @Router /control-history [get]
func (h *ControlHandlers) ControlHistory(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var query models.ControlHistoryQuery
	if err := h.decoder.Decode(&query, r.URL.Query()); err != nil {
		// unparsable limits fall back to the default
		query = models.ControlHistoryQuery{}
	}

	history, err := h.service.ControlHistory(r.Context(), query)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}

// @Summary Smart control status
// @Description Whether smart control is active for a device (global and device switch both on)
// @Tags controls
// @Produce json
// @Param device path string true "pump, lamp or fan"
// @Success 200 {object} gardenservice.SmartStatus
// @Router /smart-status/{device} [get]
func (h *ControlHandlers) SmartStatus(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	device := mux.Vars(r)["device"]

	status, err := h.service.SmartControlStatus(r.Context(), device)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}
