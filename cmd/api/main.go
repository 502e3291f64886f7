package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/app"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/clock"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/config"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/observability/metrics"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/storage/postgres"
	transporthttp "github.com/Hirotaka-0926/tire-strage-system-sub000/internal/transport/http"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	if cfg.MetricsEnabled {
		metrics.Init()
	}

	areaRepo := postgres.NewAreaRepository(pool)
	areaSvc := app.NewAreaService(areaRepo, clock.NewSystem())
	slotRepo := postgres.NewSlotRepository(pool)
	slotSvc := app.NewSlotService(slotRepo)
	historyRepo := postgres.NewHistoryRepository(pool)
	historySvc := app.NewHistoryService(historyRepo, clock.NewSystem())
	assignSvc := app.NewAssignmentService(slotRepo, historySvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/areas", transporthttp.HandleAreas(areaSvc))
	mux.Handle("/areas/", transporthttp.HandleAreaItem(areaSvc, slotSvc))
	mux.Handle("/slots/", transporthttp.HandleSlots(slotSvc, assignSvc, historySvc))
	mux.Handle("/customers/", transporthttp.HandleCustomers(historySvc, assignSvc))
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.Printf("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
