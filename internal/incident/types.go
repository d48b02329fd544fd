package incident

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("incident: not found")
	ErrAccessDenied = errors.New("incident: access denied")
	ErrInvalidInput = errors.New("incident: invalid input")
)

// Incident is a reported city event. Number is allocated once from a sequence
// at insert time and never changes; ReporterID is bound at creation from the
// caller identity and never reassigned.
type Incident struct {
	ID         string         `json:"id"`
	Number     int64          `json:"number"`
	Title      string         `json:"title"`
	Type       string         `json:"type"`
	Severity   string         `json:"severity"`
	Status     string         `json:"status"`
	Location   string         `json:"location"`
	ReporterID string         `json:"reporterId,omitempty"`
	AssignedTo string         `json:"assignedTo,omitempty"`
	ReportedAt time.Time      `json:"reportedAt"`
	Data       map[string]any `json:"data,omitempty"`
}

// TimelineEntry is one append-only audit row attached to an incident.
type TimelineEntry struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incidentId"`
	Actor      string    `json:"actor"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Filters are caller-supplied list constraints, applied after guard scoping.
type Filters struct {
	Status        string
	Severity      string
	Zone          string // substring match on location
	ReportedAfter time.Time
}

// Page is one slice of a scoped, filtered listing.
type Page struct {
	Items []*Incident `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}

// ScopeKind selects which incident subset a listing may touch.
type ScopeKind int

const (
	// ScopeNone matches nothing (unauthenticated callers).
	ScopeNone ScopeKind = iota
	// ScopeAll matches every incident (ADMIN).
	ScopeAll
	// ScopeAssigned matches incidents assigned to the user (OPERATOR).
	ScopeAssigned
	// ScopeReporter matches incidents reported by the user (CITIZEN).
	ScopeReporter
)

// Scope is the guard-derived visibility window for one caller.
type Scope struct {
	Kind   ScopeKind
	UserID string
}
