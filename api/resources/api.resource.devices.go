package resources

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gardenhub/server/hub/internal/errors"
	"github.com/gardenhub/server/hub/internal/export"
	"github.com/gardenhub/server/hub/internal/gardenservice"
	"github.com/gardenhub/server/hub/internal/models"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

// DeviceHandlers serves device switching and run history.
type DeviceHandlers struct {
	service *gardenservice.GardenService
	decoder *schema.Decoder
}

type controlDeviceRequest struct {
	Device string `json:"device"`
	Status *int   `json:"status"`
	Reason string `json:"reason"`
}

// @Summary Switch a device
// @Tags devices
// @Accept json
// @Produce json
// @Param body body controlDeviceRequest true "Device, status (0/1) and optional reason"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.APIError
// @Router /control-device [post]
func (h *DeviceHandlers) ControlDevice(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req controlDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.Status == nil {
		respondWithError(w, errors.NewValidationError("Invalid status", errors.ErrInvalidStatus).WithRequestID(requestID))
		return
	}

	status, err := h.service.ControlDevice(r.Context(), req.Device, *req.Status, req.Reason)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "success",
		"device":     req.Device,
		"new_status": status,
	})
}

// @Summary Device run history
// @Tags devices
// @Produce json
// @Param device query string false "Device name"
// @Param status query int false "Status"
// @Param reason query string false "Reason substring"
// @Param start_date query string false "Start of range (needs end_date)"
// @Param end_date query string false "End of range (needs start_date)"
// @Param sort query string false "device, status, start_time, end_time, duration or reason"
// @Param order query string false "asc or desc"
// @Success 200 {array} models.DeviceOperationRecord
// @Failure 400 {object} errors.APIError
// @Router /device-history [get]
func (h *DeviceHandlers) DeviceHistory(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.DeviceHistoryFilters
	if err := h.decoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	records, err := h.service.DeviceHistory(r.Context(), filters)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

// @Summary Export device run history
// @Description Same filters as /device-history, rendered as an xlsx workbook
// @Tags devices
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 400 {object} errors.APIError
// @Router /device-history/export [get]
func (h *DeviceHandlers) ExportDeviceHistory(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.DeviceHistoryFilters
	if err := h.decoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	records, err := h.service.DeviceHistory(r.Context(), filters)
	if err != nil {
		fail(w, err, requestID)
		return
	}

	data, err := export.DeviceHistoryWorkbook(records)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to generate export", err).WithRequestID(requestID))
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename("device-history", time.Now()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// @Summary Current device status
// @Tags devices
// @Produce json
// @Success 200 {object} map[string][]models.DeviceStatus
// @Router /device-status [get]
func (h *DeviceHandlers) DeviceStatus(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	statuses, err := h.service.DeviceStatuses(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"devices": statuses})
}
