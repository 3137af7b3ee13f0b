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

	"github.com/DanielPopoola/storefront/internal/accesstoken"
	"github.com/DanielPopoola/storefront/internal/application/services"
	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/infrastructure/alert"
	"github.com/DanielPopoola/storefront/internal/infrastructure/gateway"
	"github.com/DanielPopoola/storefront/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/storefront/internal/interfaces/rest/docs"
	"github.com/DanielPopoola/storefront/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/storefront/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/storefront/internal/worker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront order and payment API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("STOREFRONT_CONFIG"), "path to a YAML config file")

	if err := cmd.Execute(); err != nil {
		slog.Error("storefront exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting storefront service",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"gateway", cfg.Gateway.Provider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	orderRepo := postgres.NewOrderRepository(db)
	webhookLogRepo := postgres.NewWebhookLogRepository(db)

	gatewayClient := gateway.NewRetryGatewayClient(gateway.NewGatewayClient(cfg.Gateway), cfg.Retry)
	verifier := gateway.NewSignatureVerifier(cfg.Gateway.SignatureKeys()...)

	tokens, err := accesstoken.NewIssuer(cfg.Token.Secret, cfg.Token.PreviousSecret)
	if err != nil {
		return fmt.Errorf("access tokens: %w", err)
	}

	alerter := alert.New(cfg.Alert, logger)
	defer alerter.Wait()

	orderService := services.NewOrderService(orderRepo, gatewayClient, tokens, cfg.Order, logger)
	webhookService := services.NewWebhookService(orderRepo, webhookLogRepo, verifier, alerter, cfg.Retry, cfg.Gateway.Provider, logger)
	verificationService := services.NewVerificationService(orderRepo, logger)
	monitorService := services.NewMonitorService(webhookLogRepo)
	reconcileService := services.NewReconcileService(orderRepo, gatewayClient, alerter, cfg.Order, logger)

	h := handlers.NewHandlers(
		orderService,
		webhookService,
		verificationService,
		monitorService,
		db,
		logger,
	)

	limiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	mux := http.NewServeMux()
	if err := docs.Register(ctx, mux); err != nil {
		return fmt.Errorf("api docs: %w", err)
	}
	h.RegisterRoutes(mux, middleware.StaffAuth(cfg.Auth, logger), middleware.RateLimit(limiter))

	handler := middleware.Timeout(cfg.Server.RequestTimeout)(mux)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID()(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		limiter.RunSweeper(gctx)
		return nil
	})

	if cfg.Worker.Enabled {
		reconciler := worker.NewReconciler(reconcileService, cfg.Worker, logger)
		g.Go(func() error {
			reconciler.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
