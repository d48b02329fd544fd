package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"cityassist.org/internal/ai"
	"cityassist.org/internal/alert"
	"cityassist.org/internal/auth"
	"cityassist.org/internal/incident"
	"cityassist.org/internal/obs"
	"cityassist.org/internal/sensor"
)

// ReadyProbe reports service readiness, pinging the database when one is
// configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// AuthService is the account and session surface consumed by the HTTP layer.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.TokenPair, *auth.User, error)
	Register(ctx context.Context, name, email, password string) (*auth.TokenPair, *auth.User, error)
	Refresh(ctx context.Context, presented string) (*auth.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
	CreateOperator(ctx context.Context, name, email, password string) (*auth.User, error)
	ListOperators(ctx context.Context) ([]*auth.User, error)
	DeleteOperator(ctx context.Context, id string) error
}

// IncidentService drives incident lifecycle operations.
type IncidentService interface {
	Create(ctx context.Context, ident auth.Identity, in incident.CreateInput) (*incident.Incident, error)
	Get(ctx context.Context, ident auth.Identity, id string) (*incident.Incident, error)
	GetByNumber(ctx context.Context, ident auth.Identity, number int64) (*incident.Incident, error)
	List(ctx context.Context, ident auth.Identity, f incident.Filters, page, size int) (*incident.Page, error)
	Assign(ctx context.Context, ident auth.Identity, id, targetUserID string) (*incident.Incident, error)
	UpdateStatus(ctx context.Context, ident auth.Identity, id, status, note string) (*incident.Incident, error)
	UpdateSeverity(ctx context.Context, ident auth.Identity, id, severity, note string) (*incident.Incident, error)
	Timeline(ctx context.Context, ident auth.Identity, id string) ([]*incident.TimelineEntry, error)
	TimelineByNumber(ctx context.Context, ident auth.Identity, number int64) ([]*incident.TimelineEntry, error)
	AddNote(ctx context.Context, ident auth.Identity, id, text string) (*incident.TimelineEntry, error)
}

// AlertService drives the broadcast alert feed.
type AlertService interface {
	Create(ctx context.Context, ident auth.Identity, in alert.CreateInput) (*alert.Alert, error)
	List(ctx context.Context, ident auth.Identity, page, size int) (*alert.Page, error)
	MarkRead(ctx context.Context, ident auth.Identity, alertID string) error
}

// SensorService exposes the sensor registry and timeseries.
type SensorService interface {
	List(ctx context.Context) ([]*sensor.Sensor, error)
	Timeseries(ctx context.Context, sensorID string, from, to time.Time) ([]*sensor.Point, error)
}

// Predictor scores risk predictions.
type Predictor interface {
	PredictFlood(ctx context.Context, features map[string]any) map[string]any
	PredictAQI(ctx context.Context, features map[string]any) map[string]any
	Models(ctx context.Context) []map[string]any
}

// Options wires the API with its collaborators and tunables.
type Options struct {
	ReadyProbe ReadyProbe
	Version    string

	Auth      AuthService
	Incidents IncidentService
	Alerts    AlertService
	Sensors   SensorService
	AI        Predictor

	MaxBodyBytes  int64
	RatePerSecond int
	RateBurst     int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth      AuthService
	incidents IncidentService
	alerts    AlertService
	sensors   SensorService
	ai        Predictor

	maxBodyBytes  int64
	ratePerSecond int
	rateBurst     int
}

func New(opts Options) *API {
	a := &API{
		mux:           http.NewServeMux(),
		readyProbe:    opts.ReadyProbe,
		version:       opts.Version,
		auth:          opts.Auth,
		incidents:     opts.Incidents,
		alerts:        opts.Alerts,
		sensors:       opts.Sensors,
		ai:            opts.AI,
		maxBodyBytes:  opts.MaxBodyBytes,
		ratePerSecond: opts.RatePerSecond,
		rateBurst:     opts.RateBurst,
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}
	if a.ratePerSecond <= 0 {
		a.ratePerSecond = 20
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 2 * a.ratePerSecond
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/api/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/v1/auth/logout", a.handleLogout)

	a.mux.HandleFunc("/api/v1/incidents", a.handleIncidentsCollection)
	a.mux.HandleFunc("/api/v1/incidents/", a.handleIncidentResource)

	a.mux.HandleFunc("/api/v1/alerts", a.handleAlertsCollection)
	a.mux.HandleFunc("/api/v1/alerts/", a.handleAlertResource)

	a.mux.HandleFunc("/api/v1/sensors", a.handleSensors)
	a.mux.HandleFunc("/api/v1/sensors/", a.handleSensorResource)

	a.mux.HandleFunc("/api/v1/users/operators", a.handleOperatorsCollection)
	a.mux.HandleFunc("/api/v1/users/operators/", a.handleOperatorResource)

	a.mux.HandleFunc("/api/v1/ai/predict/flood", a.handlePredictFlood)
	a.mux.HandleFunc("/api/v1/ai/predict/aqi", a.handlePredictAQI)
	a.mux.HandleFunc("/api/v1/ai/models", a.handleModels)

	a.mux.HandleFunc("/api/v1/seed", a.handleSeed)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RequestID(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSecond)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "cityassist-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "cityassist-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// identity returns the caller identity, zero-valued for anonymous requests.
func identity(r *http.Request) auth.Identity {
	ident, _ := auth.IdentityFromContext(r.Context())
	return ident
}

var _ AuthService = (*auth.Service)(nil)
var _ IncidentService = (*incident.Service)(nil)
var _ AlertService = (*alert.Service)(nil)
var _ SensorService = (*sensor.Service)(nil)
var _ Predictor = (*ai.Gateway)(nil)
