package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propshop/internal/config"
	"propshop/internal/feed"
	"propshop/internal/infra"
	"propshop/internal/repository"
	"propshop/internal/router"
	"propshop/internal/service"
	"propshop/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repositories shared by the background machinery (the router wires its
	// own set for the HTTP path).
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Seed the admin allowlist — idempotent, runs on every startup.
	adminSvc := service.NewAdminService(adminRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	if err := adminSvc.Seed(ctx, cfg.AdminEmails()); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin allowlist")
	}

	// Change feed hub. The loaders map is filled after the services exist,
	// because the delivery snapshot is a service-level projection.
	loaders := make(map[string]feed.Loader)
	hub := feed.NewHub(rdb, loaders)

	deliverySvc := service.NewDeliveryService(deliveryRepo, orderRepo, hub)

	loaders[service.CollectionProducts] = func(ctx context.Context) (interface{}, error) {
		return productRepo.ListAll(ctx)
	}
	loaders[service.CollectionMovements] = func(ctx context.Context) (interface{}, error) {
		return movementRepo.ListAll(ctx)
	}
	loaders[service.CollectionOrders] = func(ctx context.Context) (interface{}, error) {
		return orderRepo.ListAll(ctx)
	}
	loaders[service.CollectionDeliveries] = func(ctx context.Context) (interface{}, error) {
		return deliverySvc.List(ctx)
	}
	go hub.Run(ctx)

	// Async receipt pipeline: dispatcher enqueues, the pool renders PDFs and
	// emails them through the SMTP circuit breaker.
	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	receiptWorker := worker.NewReceiptWorker(orderRepo, mailer, smtpCB, rdb,
		cfg.ReceiptStoragePath, cfg.BusinessName)
	worker.StartWorkerPool(ctx, rdb, map[string]worker.Handler{
		worker.QueueReceipts: receiptWorker,
	}, cfg.WorkerPoolSize)

	// Backfill missing delivery rows for committed delivery orders.
	worker.StartReconcileCron(ctx, deliverySvc)

	r := router.New(cfg, db, rdb, hub)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("propshop backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
