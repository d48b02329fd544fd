package sensor

import (
	"context"
	"time"
)

// Store describes persistence for sensors and their timeseries.
type Store interface {
	List(ctx context.Context) ([]*Sensor, error)
	Timeseries(ctx context.Context, sensorID string, from, to time.Time) ([]*Point, error)
}
