package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cityassist.org/internal/sensor"
)

func (a *API) handleSensors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sensors, err := a.sensors.List(r.Context())
	if err != nil {
		handleSensorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sensors)
}

// handleSensorResource routes GET /api/v1/sensors/{id}/timeseries.
func (a *API) handleSensorResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/sensors/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "timeseries" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	q := r.URL.Query()
	now := time.Now().UTC()
	from := now.Add(-1 * time.Hour)
	to := now
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
			return
		}
		from = t
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
			return
		}
		to = t
	}

	points, err := a.sensors.Timeseries(r.Context(), parts[0], from, to)
	if err != nil {
		handleSensorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func handleSensorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sensor.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, sensor.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
