package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gatepasshq/gatepass-backend/api/routes"
	"github.com/gatepasshq/gatepass-backend/internal/checkin"
	"github.com/gatepasshq/gatepass-backend/internal/events"
	"github.com/gatepasshq/gatepass-backend/internal/fulfillment"
	"github.com/gatepasshq/gatepass-backend/internal/payments"
	"github.com/gatepasshq/gatepass-backend/internal/registration"
	"github.com/gatepasshq/gatepass-backend/internal/tickets"
	"github.com/gatepasshq/gatepass-backend/internal/users"
	"github.com/gatepasshq/gatepass-backend/internal/verification"
	stripewebhook "github.com/gatepasshq/gatepass-backend/internal/webhooks/stripe"
	"github.com/gatepasshq/gatepass-backend/pkg/config"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/metrics"
	"github.com/gatepasshq/gatepass-backend/pkg/migrate"
	"github.com/gatepasshq/gatepass-backend/pkg/redis"
	"github.com/gatepasshq/gatepass-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	fulfillmentMetrics := metrics.NewFulfillmentMetrics(prometheus.DefaultRegisterer)

	eventRepo := events.NewRepository(dbClient.DB())
	userRepo := users.NewRepository(dbClient.DB())
	ticketRepo := tickets.NewRepository(dbClient.DB())
	gateway := payments.NewStripeGateway(stripeClient)

	fulfillmentService := fulfillment.NewService(ticketRepo, userRepo, redisClient, fulfillmentMetrics, logg)
	registrationService := registration.NewService(eventRepo, userRepo, ticketRepo, gateway, redisClient, fulfillmentMetrics, logg, cfg.App.BaseURL)
	verificationService := verification.NewService(gateway, fulfillmentService, logg)
	ticketService := tickets.NewService(ticketRepo, redisClient, logg)
	eventService := events.NewService(eventRepo, ticketRepo, redisClient, logg)
	checkInService := checkin.NewService(eventRepo, ticketRepo, fulfillmentMetrics, logg)

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}
	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Fulfillment: fulfillmentService,
		Guard:       webhookGuard,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			stripeClient,
			registrationService,
			verificationService,
			ticketService,
			eventService,
			checkInService,
			webhookService,
		),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
