package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cityassist.org/internal/sensor"
)

func TestListSensors(t *testing.T) {
	api := newTestAPI(Options{
		Sensors: &stubSensors{
			list: func(context.Context) ([]*sensor.Sensor, error) {
				return []*sensor.Sensor{{ID: "demo-1", Type: "aqi", Label: "AQI Sensor 1", Status: "online"}}, nil
			},
		},
	})

	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rr.Code, rr.Body.String())
	}
	var resp []map[string]any
	decodeBody(t, rr, &resp)
	if len(resp) != 1 || resp[0]["id"] != "demo-1" {
		t.Fatalf("unexpected sensors: %v", resp)
	}
}

func TestSensorTimeseriesParsesRange(t *testing.T) {
	var gotID string
	var gotFrom, gotTo time.Time
	api := newTestAPI(Options{
		Sensors: &stubSensors{
			timeseries: func(_ context.Context, sensorID string, from, to time.Time) ([]*sensor.Point, error) {
				gotID, gotFrom, gotTo = sensorID, from, to
				return []*sensor.Point{}, nil
			},
		},
	})

	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet,
		"/api/v1/sensors/demo-3/timeseries?from=2026-08-28T10:00:00Z&to=2026-08-28T11:00:00Z", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rr.Code, rr.Body.String())
	}
	if gotID != "demo-3" {
		t.Fatalf("sensor id = %q", gotID)
	}
	if gotTo.Sub(gotFrom) != time.Hour {
		t.Fatalf("range = %v .. %v", gotFrom, gotTo)
	}
}

func TestSensorTimeseriesDefaultsToLastHour(t *testing.T) {
	var gotFrom, gotTo time.Time
	api := newTestAPI(Options{
		Sensors: &stubSensors{
			timeseries: func(_ context.Context, _ string, from, to time.Time) ([]*sensor.Point, error) {
				gotFrom, gotTo = from, to
				return nil, nil
			},
		},
	})

	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet, "/api/v1/sensors/demo-1/timeseries", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if gotTo.Sub(gotFrom) != time.Hour {
		t.Fatalf("default range = %v", gotTo.Sub(gotFrom))
	}
}

func TestSensorTimeseriesBadTimestamp(t *testing.T) {
	api := newTestAPI(Options{Sensors: &stubSensors{}})
	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet,
		"/api/v1/sensors/demo-1/timeseries?from=yesterday", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestSensorUnknownSubresourceIs404(t *testing.T) {
	api := newTestAPI(Options{Sensors: &stubSensors{}})
	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet, "/api/v1/sensors/demo-1/history", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
