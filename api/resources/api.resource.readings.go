package resources

import (
	"net/http"

	"github.com/gardenhub/server/hub/internal/gardenservice"
	nuts "github.com/vaudience/go-nuts"
)

// ReadingHandlers serves the stored sensor snapshots.
type ReadingHandlers struct {
	service *gardenservice.GardenService
}

// @Summary Latest reading
// @Description Most recent sensor snapshot, or {"error":"No data"} before the first poll
// @Tags readings
// @Produce json
// @Success 200 {object} models.SensorSnapshot
// @Router /latest [get]
func (h *ReadingHandlers) Latest(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	snapshot, err := h.service.LatestReading(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	if snapshot == nil {
		respondWithJSON(w, http.StatusOK, map[string]string{"error": "No data"})
		return
	}
	respondWithJSON(w, http.StatusOK, snapshot)
}

// @Summary Reading history
// @Description Last 50 snapshots, newest first
// @Tags readings
// @Produce json
// @Success 200 {array} models.SensorSnapshot
// @Router /history [get]
func (h *ReadingHandlers) History(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	snapshots, err := h.service.RecentReadings(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, snapshots)
}

// @Summary Daily statistics
// @Description Averages and extremes over the last 24 hours, zero when no data
// @Tags readings
// @Produce json
// @Success 200 {object} models.SensorStats
// @Router /stats [get]
func (h *ReadingHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
