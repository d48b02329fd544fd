package sensor

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"
)

// Service serves the sensor catalog and timeseries, substituting
// deterministic demo data when the store has nothing to show.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// List returns all sensors, or the demo set when the table is empty.
func (s *Service) List(ctx context.Context) ([]*Sensor, error) {
	sensors, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(sensors) == 0 {
		return s.demoSensors(), nil
	}
	return sensors, nil
}

// Timeseries returns samples ordered by time. An empty range yields a
// synthetic sine-wave series so dashboards have something to draw.
func (s *Service) Timeseries(ctx context.Context, sensorID string, from, to time.Time) ([]*Point, error) {
	sensorID = strings.TrimSpace(sensorID)
	if sensorID == "" {
		return nil, fmt.Errorf("%w: sensor id is required", ErrInvalidInput)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: to must be after from", ErrInvalidInput)
	}
	points, err := s.store.Timeseries(ctx, sensorID, from, to)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return syntheticSeries(sensorID, from, to), nil
	}
	return points, nil
}

// demoSensors is the deterministic fallback catalog: eight stations cycling
// through the measurement types and zones A-D.
func (s *Service) demoSensors() []*Sensor {
	types := []string{"aqi", "weather", "water-level", "aqi", "weather", "water-level", "aqi", "weather"}
	zones := []string{"A", "B", "C", "D"}
	now := s.now()

	sensors := make([]*Sensor, 0, 8)
	for i := 0; i < 8; i++ {
		typ := types[i%len(types)]
		status := "online"
		if i%5 == 0 {
			status = "warning"
		}
		lat := float64(8 + (i*7)%29)
		lon := float64(68 + (i*9)%29)
		sensors = append(sensors, &Sensor{
			ID:             fmt.Sprintf("demo-%d", i+1),
			Type:           typ,
			Label:          fmt.Sprintf("%s Sensor %d", strings.ToUpper(typ), i+1),
			Zone:           zones[i%len(zones)],
			Lat:            lat + 0.12*float64(i%3),
			Lon:            lon + 0.07*float64(i%4),
			Status:         status,
			LastReportedAt: now.Add(-time.Duration(i*5) * time.Minute),
		})
	}
	return sensors
}

// syntheticSeries produces one sample every five minutes over the requested
// window, capped at two hours of samples.
func syntheticSeries(sensorID string, from, to time.Time) []*Point {
	minutes := int(to.Sub(from).Minutes())
	if minutes <= 0 {
		minutes = 60
	}
	if minutes > 120 {
		minutes = 120
	}

	offset := float64(sensorSalt(sensorID) % 3)
	var points []*Point
	for i := 0; i <= minutes; i += 5 {
		val := 20 + 5*math.Sin(float64(i)/10.0) + offset
		points = append(points, &Point{
			Time:  from.Add(time.Duration(i) * time.Minute),
			Value: map[string]any{"value": math.Round(val*100) / 100},
		})
	}
	return points
}

// sensorSalt keeps the synthetic curve stable per sensor.
func sensorSalt(sensorID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sensorID))
	return h.Sum32()
}
