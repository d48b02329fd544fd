package httpapi

import (
	"net/http"
	"strings"
)

// handlePredictFlood accepts a JSON feature map; the optional model query
// parameter pins a specific local model.
func (a *API) handlePredictFlood(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	features := map[string]any{}
	if err := decodeJSON(w, r, &features); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if model := strings.TrimSpace(r.URL.Query().Get("model")); model != "" {
		features["_model"] = model
	}
	writeJSON(w, http.StatusOK, a.ai.PredictFlood(r.Context(), features))
}

func (a *API) handlePredictAQI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	features := map[string]any{}
	if err := decodeJSON(w, r, &features); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.ai.PredictAQI(r.Context(), features))
}

func (a *API) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, a.ai.Models(r.Context()))
}
