package httpapi

import (
	"net/http"
	"strings"

	"cityassist.org/internal/audit"
)

type createOperatorRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleOperatorsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listOperators(w, r)
	case http.MethodPost:
		a.createOperator(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOperatorResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/users/operators/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	a.deleteOperator(w, r, id)
}

func (a *API) listOperators(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	operators, err := a.auth.ListOperators(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operators)
}

func (a *API) createOperator(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	var req createOperatorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	operator, err := a.auth.CreateOperator(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "user.operator.create", map[string]any{
		"operator_id": operator.ID,
	})
	writeJSON(w, http.StatusCreated, operator)
}

func (a *API) deleteOperator(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if err := a.auth.DeleteOperator(r.Context(), id); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.operator.delete", map[string]any{
		"operator_id": id,
	})
	w.WriteHeader(http.StatusNoContent)
}
