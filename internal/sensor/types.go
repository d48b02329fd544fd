package sensor

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("sensor: not found")
	ErrInvalidInput = errors.New("sensor: invalid input")
)

// Sensor is an environmental measurement station.
type Sensor struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Label          string    `json:"label"`
	Zone           string    `json:"zone"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	Status         string    `json:"status"`
	LastReportedAt time.Time `json:"lastReportedAt"`
}

// Point is one timeseries sample. Value carries the measurement payload.
type Point struct {
	Time  time.Time      `json:"time"`
	Value map[string]any `json:"data"`
}
