package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cityassist.org/internal/audit"
	"cityassist.org/internal/incident"
)

type createIncidentRequest struct {
	Title    string         `json:"title"`
	Type     string         `json:"type"`
	Severity string         `json:"severity"`
	Location string         `json:"location"`
	Data     map[string]any `json:"data"`
}

type assignRequest struct {
	AssignedTo string `json:"assignedTo"`
}

type statusRequest struct {
	Status string `json:"status"`
	Text   string `json:"text"`
}

type severityRequest struct {
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

type noteRequest struct {
	Text string `json:"text"`
}

func (a *API) handleIncidentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listIncidents(w, r)
	case http.MethodPost:
		a.createIncident(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleIncidentResource routes /api/v1/incidents/{id}[/verb] and the
// /api/v1/incidents/number/{num}[/verb] lookups to the same handlers.
func (a *API) handleIncidentResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/incidents/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if parts[0] == "number" {
		if len(parts) < 2 {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		number, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || number <= 0 {
			writeError(w, r, http.StatusBadRequest, "incident number must be a positive integer")
			return
		}
		a.dispatchIncidentByNumber(w, r, number, parts[2:])
		return
	}

	a.dispatchIncident(w, r, parts[0], parts[1:])
}

func (a *API) dispatchIncident(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	switch {
	case len(rest) == 0:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getIncident(w, r, id)
	case len(rest) == 1 && rest[0] == "assign":
		a.assignIncident(w, r, id)
	case len(rest) == 1 && rest[0] == "status":
		a.updateIncidentStatus(w, r, id)
	case len(rest) == 1 && rest[0] == "severity":
		a.updateIncidentSeverity(w, r, id)
	case len(rest) == 1 && rest[0] == "timeline":
		a.incidentTimeline(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// dispatchIncidentByNumber resolves the number to an incident, then reuses
// the id-based handlers. The resolve step applies the same visibility rules
// as a direct lookup.
func (a *API) dispatchIncidentByNumber(w http.ResponseWriter, r *http.Request, number int64, rest []string) {
	if len(rest) == 0 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		inc, err := a.incidents.GetByNumber(r.Context(), identity(r), number)
		if err != nil {
			handleIncidentError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, inc)
		return
	}

	if len(rest) == 1 && rest[0] == "timeline" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		entries, err := a.incidents.TimelineByNumber(r.Context(), identity(r), number)
		if err != nil {
			handleIncidentError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	inc, err := a.incidents.GetByNumber(r.Context(), identity(r), number)
	if err != nil {
		handleIncidentError(w, r, err)
		return
	}
	a.dispatchIncident(w, r, inc.ID, rest)
}

func (a *API) createIncident(w http.ResponseWriter, r *http.Request) {
	var req createIncidentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	inc, err := a.incidents.Create(r.Context(), identity(r), incident.CreateInput{
		Title:    req.Title,
		Type:     req.Type,
		Severity: req.Severity,
		Location: req.Location,
		Data:     req.Data,
	})
	if err != nil {
		handleIncidentError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "incident.create", map[string]any{
		"incident_id":     inc.ID,
		"incident_number": inc.Number,
		"type":            inc.Type,
	})
	w.Header().Set("Location", "/api/v1/incidents/"+inc.ID)
	writeJSON(w, http.StatusCreated, inc)
}

func (a *API) getIncident(w http.ResponseWriter, r *http.Request, id string) {
	inc, err := a.incidents.Get(r.Context(), identity(r), id)
	if err != nil {
		handleIncidentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (a *API) listIncidents(w http.ResponseWriter, r *http.Request) {
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

	filters := incident.Filters{
		Status:   strings.TrimSpace(q.Get("status")),
		Severity: strings.TrimSpace(q.Get("severity")),
		Zone:     strings.TrimSpace(q.Get("zone")),
	}
	if from := strings.TrimSpace(q.Get("from")); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
			return
		}
		filters.ReportedAfter = t
	}

	result, err := a.incidents.List(r.Context(), identity(r), filters, page, size)
	if err != nil {
		handleIncidentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) assignIncident(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.AssignedTo) == "" {
		writeError(w, r, http.StatusBadRequest, "assignedTo is required")
		return
	}

	inc, err := a.incidents.Assign(r.Context(), identity(r), id, strings.TrimSpace(req.AssignedTo))
	if err != nil {
		handleIncidentError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "incident.assign", map[string]any{
		"incident_id": inc.ID,
		"assigned_to": req.AssignedTo,
	})
	writeJSON(w, http.StatusOK, inc)
}

func (a *API) updateIncidentStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	inc, err := a.incidents.UpdateStatus(r.Context(), identity(r), id, req.Status, req.Text)
	if err != nil {
		handleIncidentError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "incident.status.update", map[string]any{
		"incident_id": inc.ID,
		"status":      inc.Status,
	})
	writeJSON(w, http.StatusOK, inc)
}

func (a *API) updateIncidentSeverity(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req severityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	inc, err := a.incidents.UpdateSeverity(r.Context(), identity(r), id, req.Severity, req.Text)
	if err != nil {
		handleIncidentError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "incident.severity.update", map[string]any{
		"incident_id": inc.ID,
		"severity":    inc.Severity,
	})
	writeJSON(w, http.StatusOK, inc)
}

func (a *API) incidentTimeline(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		entries, err := a.incidents.Timeline(r.Context(), identity(r), id)
		if err != nil {
			handleIncidentError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	case http.MethodPost:
		var req noteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		entry, err := a.incidents.AddNote(r.Context(), identity(r), id, req.Text)
		if err != nil {
			handleIncidentError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "incident.note.add", map[string]any{
			"incident_id": id,
		})
		writeJSON(w, http.StatusCreated, entry)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func handleIncidentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, incident.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, incident.ErrAccessDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, incident.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
