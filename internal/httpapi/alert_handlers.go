package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"cityassist.org/internal/alert"
	"cityassist.org/internal/audit"
)

type createAlertRequest struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Zone     string `json:"zone"`
}

func (a *API) handleAlertsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAlerts(w, r)
	case http.MethodPost:
		a.createAlert(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleAlertResource routes POST /api/v1/alerts/{id}/read.
func (a *API) handleAlertResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "read" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.markAlertRead(w, r, parts[0])
}

func (a *API) listAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// page is zero-based: the default page holds the newest rows.
	page, err := parsePositiveInt(q.Get("page"), "page", 0, 0, 1_000_000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveInt(q.Get("size"), "size", 20, 1, 100)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.alerts.List(r.Context(), identity(r), page, size)
	if err != nil {
		handleAlertError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) createAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := a.alerts.Create(r.Context(), identity(r), alert.CreateInput{
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Severity: req.Severity,
		Zone:     req.Zone,
	})
	if err != nil {
		handleAlertError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "alert.create", map[string]any{
		"alert_id": created.ID,
		"type":     created.Type,
		"severity": created.Severity,
	})
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) markAlertRead(w http.ResponseWriter, r *http.Request, alertID string) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := a.alerts.MarkRead(r.Context(), ident, alertID); err != nil {
		handleAlertError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleAlertError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, alert.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, alert.ErrAccessDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, alert.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
