package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cityassist.org/internal/obs"
)

const modelVersion = "1.0.0"

// Gateway scores risk predictions. Local heuristic models always work; when
// a remote scoring service is configured it is tried first and the heuristics
// act as fallback.
type Gateway struct {
	baseURL string
	client  *http.Client
}

// NewGateway wires the gateway. An empty baseURL disables remote calls.
func NewGateway(baseURL string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gateway{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// PredictFlood scores flood risk. A "_model" feature pins a local model;
// otherwise the remote service is consulted first.
func (g *Gateway) PredictFlood(ctx context.Context, features map[string]any) map[string]any {
	if sel := getString(features, "_model"); sel != "" {
		model := strings.ToLower(strings.TrimSpace(strings.SplitN(sel, ":", 2)[0]))
		switch model {
		case "flood-heuristic":
			return floodHeuristic(features)
		case "flood-logistic":
			return floodLogistic(features)
		}
		// unknown local model, fall through to remote
	}
	if g.baseURL != "" {
		if out, err := g.remotePredict(ctx, "/predict/flood", features); err == nil && len(out) > 0 {
			return out
		} else if err != nil {
			obs.LogRequest(map[string]any{
				"level": "warn", "msg": "remote scorer unavailable, using heuristic", "error": err.Error(),
			})
		}
	}
	return floodHeuristic(features)
}

// PredictAQI scores air quality locally from PM2.5/PM10 concentrations.
func (g *Gateway) PredictAQI(_ context.Context, features map[string]any) map[string]any {
	pm25 := getFloat(features, "pm25")
	pm10 := getFloat(features, "pm10")

	base := 0.0
	if !math.IsNaN(pm25) {
		base = math.Max(base, pm25/150.0)
	}
	if !math.IsNaN(pm10) {
		base = math.Max(base, pm10/300.0)
	}
	base = clamp01(base)

	var label string
	switch {
	case base < 0.2:
		label = "GOOD"
	case base < 0.4:
		label = "MODERATE"
	case base < 0.6:
		label = "UNHEALTHY_SENSITIVE"
	case base < 0.8:
		label = "UNHEALTHY"
	default:
		label = "VERY_UNHEALTHY"
	}
	return map[string]any{
		"probability": base,
		"label":       label,
		"model":       "aqi-heuristic",
		"version":     modelVersion,
	}
}

// Models lists the local models merged with the remote catalog when reachable.
func (g *Gateway) Models(ctx context.Context) []map[string]any {
	models := []map[string]any{
		{"name": "flood-heuristic", "version": modelVersion},
		{"name": "flood-logistic", "version": modelVersion},
	}
	if g.baseURL == "" {
		return models
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/models", nil)
	if err != nil {
		return models
	}
	resp, err := g.client.Do(req)
	if err != nil {
		obs.LogRequest(map[string]any{
			"level": "warn", "msg": "remote model catalog unavailable", "error": err.Error(),
		})
		return models
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models
	}
	var remote []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return models
	}
	return append(models, remote...)
}

func (g *Gateway) remotePredict(ctx context.Context, path string, features map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote scorer returned %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

var riskZonePattern = regexp.MustCompile(`zone\s*[ab]`)

func riskyZone(zone string) bool {
	z := strings.ToLower(zone)
	return strings.Contains(z, "lowland") || strings.Contains(z, "river") ||
		strings.Contains(z, "coast") || riskZonePattern.MatchString(z)
}

func floodHeuristic(features map[string]any) map[string]any {
	rainfall := getFloat(features, "rainfall_mm")
	riverLevel := getFloat(features, "river_level_m")
	soil := getFloat(features, "soil_moisture_percent")
	zone := getString(features, "zone")

	provided := 0
	for _, v := range []float64{rainfall, riverLevel, soil} {
		if !math.IsNaN(v) {
			provided++
		}
	}

	out := map[string]any{
		"model":      "flood-heuristic",
		"version":    modelVersion,
		"confidence": float64(provided) / 3.0,
	}
	if provided == 0 {
		out["label"] = "UNKNOWN"
		return out
	}

	// Normalization anchors: 200mm rain, 8m river level, saturated soil.
	prob := 0.4*comp(rainfall, 200) + 0.45*comp(riverLevel, 8) + 0.15*comp(soil, 100)
	if zone != "" && riskyZone(zone) {
		prob = clamp01(prob + 0.1)
	}
	out["probability"] = prob
	out["label"] = riskLabel(prob)
	return out
}

func floodLogistic(features map[string]any) map[string]any {
	rainfall := getFloat(features, "rainfall_mm")
	riverLevel := getFloat(features, "river_level_m")
	soil := getFloat(features, "soil_moisture_percent")

	zoneBoost := 0.0
	if riskyZone(getString(features, "zone")) {
		zoneBoost = 0.5
	}
	z := 1.2*comp(rainfall, 150) + 1.6*comp(riverLevel, 6) + 0.6*comp(soil, 100) + zoneBoost - 1.5
	prob := clamp01(1.0 / (1.0 + math.Exp(-z)))

	return map[string]any{
		"probability": prob,
		"label":       riskLabel(prob),
		"confidence":  0.7,
		"model":       "flood-logistic",
		"version":     modelVersion,
	}
}

func riskLabel(prob float64) string {
	switch {
	case prob >= 0.8:
		return "CRITICAL"
	case prob >= 0.6:
		return "HIGH"
	case prob >= 0.4:
		return "MEDIUM"
	case prob >= 0.2:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// comp normalizes a raw reading against its extreme anchor; missing readings
// contribute nothing.
func comp(value, anchor float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return clamp01(value / anchor)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func getFloat(m map[string]any, key string) float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return math.NaN()
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}
