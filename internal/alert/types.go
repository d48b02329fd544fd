package alert

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("alert: not found")
	ErrAccessDenied = errors.New("alert: access denied")
	ErrInvalidInput = errors.New("alert: invalid input")
)

// Alert is a city-wide broadcast message.
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Zone      string    `json:"zone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Page is one slice of a newest-first alert listing.
type Page struct {
	Items []*Alert `json:"items"`
	Total int64    `json:"total"`
	Page  int      `json:"page"`
	Size  int      `json:"size"`
}
