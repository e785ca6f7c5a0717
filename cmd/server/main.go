package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/config"
	"timeclock/internal/db"
	"timeclock/internal/domain/device"
	"timeclock/internal/domain/employee"
	"timeclock/internal/domain/punch"
	"timeclock/internal/domain/shift"
	"timeclock/internal/domain/timesheet"
	"timeclock/internal/platform/jobs"
	"timeclock/internal/platform/metrics"
	"timeclock/internal/transport/http/api"
	attendancehandler "timeclock/internal/transport/http/handlers/attendance"
	employeeshandler "timeclock/internal/transport/http/handlers/employees"
	shiftshandler "timeclock/internal/transport/http/handlers/shifts"
	terminalshandler "timeclock/internal/transport/http/handlers/terminals"
	"timeclock/internal/transport/http/middleware"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}
	loc := cfg.Location()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	collector := metrics.New()
	deviceStore := device.NewStore(pool)
	employeeStore := employee.NewStore(pool)
	punchStore := punch.NewStore(pool)
	shiftStore := shift.NewStore(pool, cfg.DefaultPolicyName)

	ingestor := punch.NewIngestor(
		deviceStore,
		punchStore,
		employeeStore,
		device.NewZKDialer(cfg.ProbeTimeout, loc),
		collector,
	)

	sheetService := timesheet.NewService(
		punchStore,
		shiftStore,
		employeeStore,
		timesheet.ReconstructConfig{BreakThreshold: cfg.BreakThreshold, MaxSpan: cfg.MaxSessionSpan},
		cfg.ExportDir,
	)

	jobService := jobs.New(pool, cfg, ingestor)
	jobService.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.AuthSecret))

		terminalshandler.NewHandler(deviceStore, ingestor).RegisterRoutes(r)
		employeeshandler.NewHandler(employeeStore, punchStore, loc).RegisterRoutes(r)
		shiftshandler.NewHandler(shiftStore, loc).RegisterRoutes(r)
		attendancehandler.NewHandler(sheetService, loc).RegisterRoutes(r)
	})

	log.Printf("attendance server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
