package sensor

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) List(ctx context.Context) ([]*Sensor, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, sensor_type, label, zone, lat, lon, status, last_reported_at
		 from sensors order by label asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sensors []*Sensor
	for rows.Next() {
		var (
			sn       Sensor
			reported sql.NullTime
		)
		if err := rows.Scan(&sn.ID, &sn.Type, &sn.Label, &sn.Zone, &sn.Lat, &sn.Lon, &sn.Status, &reported); err != nil {
			return nil, err
		}
		sn.LastReportedAt = reported.Time
		sensors = append(sensors, &sn)
	}
	return sensors, rows.Err()
}

func (s *PGStore) Timeseries(ctx context.Context, sensorID string, from, to time.Time) ([]*Point, error) {
	rows, err := s.db.QueryContext(ctx,
		`select recorded_at, data from sensor_timeseries
		 where sensor_id=$1 and recorded_at between $2 and $3
		 order by recorded_at asc`,
		sensorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []*Point
	for rows.Next() {
		var (
			p    Point
			data []byte
		)
		if err := rows.Scan(&p.Time, &data); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &p.Value)
		}
		points = append(points, &p)
	}
	return points, rows.Err()
}
