package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"cityassist.org/internal/ai"
	"cityassist.org/internal/alert"
	"cityassist.org/internal/auth"
	"cityassist.org/internal/config"
	"cityassist.org/internal/httpapi"
	"cityassist.org/internal/incident"
	"cityassist.org/internal/migrate"
	"cityassist.org/internal/obs"
	"cityassist.org/internal/sensor"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	if cfg.DatabaseDSN == "" {
		log.Fatal("missing DSN: set CITYASSIST_PG_DSN")
	}
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL())
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := migrate.NewManager(db, cfg.MigrationsDir).Up(startCtx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	authSvc := auth.NewService(auth.NewPGStore(db), issuer, cfg.RefreshTTL())
	if err := authSvc.EnsureDefaultAdmin(startCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("ensure admin: %v", err)
	}
	cancel()

	api := httpapi.New(httpapi.Options{
		ReadyProbe: httpapi.ReadyProbe{DB: db},
		Version:    version,

		Auth:      authSvc,
		Incidents: incident.NewService(incident.NewPGStore(db)),
		Alerts:    alert.NewService(alert.NewPGStore(db)),
		Sensors:   sensor.NewService(sensor.NewPGStore(db)),
		AI:        ai.NewGateway(cfg.AIBaseURL, cfg.AITimeout()),

		MaxBodyBytes:  cfg.MaxBodyBytes,
		RatePerSecond: cfg.RateLimitPerSec,
		RateBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting cityassist-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
