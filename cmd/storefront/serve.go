package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/api"
	"github.com/DanielPopoola/creski-storefront/internal/application/services"
	"github.com/DanielPopoola/creski-storefront/internal/clock"
	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/creski-storefront/internal/infrastructure/razorpay"
	"github.com/DanielPopoola/creski-storefront/internal/infrastructure/session"
	"github.com/DanielPopoola/creski-storefront/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/creski-storefront/internal/notify"
	"github.com/DanielPopoola/creski-storefront/internal/worker"
	"github.com/DanielPopoola/creski-storefront/migrations"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the session sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")
	return cmd
}

func runServe(skipMigrations bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	// Prices travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	logger.Info("starting storefront service",
		"port", cfg.Server.Port,
		"env", cfg.Primary.Env,
		"log_level", cfg.Logger.Level,
	)
	logFeatures(cfg, logger)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if !skipMigrations {
		if err := migrations.Apply(ctx, db.Pool, logger); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	redisClient, err := session.NewClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	clk := clock.NewSystem()
	sessions := session.NewRedisStore(redisClient, cfg.Redis.SessionTTL)
	orderRepo := postgres.NewOrderRepository(db.Pool)
	gateways := razorpay.NewFactory(cfg.Gateway, cfg.Retry, logger)

	smtp := notify.NewSMTPSender(cfg.SMTP)
	customerEmail := notify.NewCustomerEmail(cfg.SMTP, smtp)
	orderEvents := notify.NewOrderEvents(cfg.Kafka)
	defer orderEvents.Close()

	dispatcher := notify.NewDispatcher(logger,
		notify.NewOwnerEmail(cfg.SMTP, smtp),
		customerEmail,
		notify.NewTelegram(cfg.Telegram),
		orderEvents,
	)

	orderService, err := services.NewOrderService(gateways, orderRepo, cfg.Checkout.NodeID, clk, logger)
	if err != nil {
		return fmt.Errorf("failed to create order service: %w", err)
	}
	verificationService := services.NewVerificationService(gateways, orderRepo, clk, logger)
	notificationService := services.NewNotificationService(dispatcher, orderRepo, cfg.Checkout.NotifyTimeout, logger)
	webhookService := services.NewChatWebhookService(cfg.Telegram.ChatID, orderRepo, customerEmail, clk, logger)
	coordinator := services.NewCheckoutCoordinator(
		sessions,
		orderService,
		verificationService,
		notificationService,
		cfg.Checkout,
		clk,
		logger,
	)

	doc, err := api.Load()
	if err != nil {
		return err
	}

	h := handlers.NewHandlers(
		orderService,
		verificationService,
		notificationService,
		coordinator,
		webhookService,
		handlers.Config{
			Currency:      gateways.Currency(),
			WebhookSecret: cfg.Telegram.WebhookSecret,
		},
		clk,
		logger,
	)

	router, err := handlers.NewRouter(h, doc, logger, cfg.Server.ReadTimeout)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper := worker.NewSessionSweeper(
		sessions,
		clk,
		cfg.Worker.Interval,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go sweeper.Start(workerCtx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := notificationService.Wait(shutdownCtx); err != nil {
		logger.Warn("pending notifications abandoned", "error", err)
	}

	logger.Info("server exited")
	return nil
}

// logFeatures reports which optional integrations are usable. Missing ones
// stay disabled until configured; nothing here stops the server.
func logFeatures(cfg *config.Config, logger *slog.Logger) {
	features := []struct {
		name     string
		validate func() error
	}{
		{"gateway", cfg.Gateway.Validate},
		{"smtp", cfg.SMTP.Validate},
		{"telegram", cfg.Telegram.Validate},
		{"kafka", cfg.Kafka.Validate},
	}

	for _, f := range features {
		if err := f.validate(); err != nil {
			logger.Warn("feature disabled", "feature", f.name, "reason", err)
			continue
		}
		logger.Info("feature enabled", "feature", f.name)
	}
}
