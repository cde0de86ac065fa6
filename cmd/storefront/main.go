// Storefront gateway - serves the cart, checkout and catalog of one
// customer account over REST and MCP.
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

	"storefront/internal/account"
	"storefront/internal/api"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/notice"
	"storefront/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("api_base_url", cfg.APIBaseURL),
		slog.String("environment", cfg.Environment),
		slog.Bool("chrome_tls", cfg.ChromeTLS),
		slog.Float64("requests_per_second", cfg.RequestsPerSecond),
	)

	if !cfg.HasCustomer() {
		return fmt.Errorf("customer email and password are required for the gateway")
	}

	m := metrics.New()

	client, err := api.New(api.Options{
		BaseURL:           cfg.APIBase(),
		ChromeTLS:         cfg.ChromeTLS,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Metrics:           m,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}

	// The gateway acts for one customer; the session lives in memory.
	sess := session.New(client, &session.MemoryPersister{}, logger)
	client.SetAuth(sess, sess.HandleUnauthorized)

	loginCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	_, err = sess.Login(loginCtx, cfg.Customer.Email, cfg.Customer.Password)
	cancel()
	if err != nil {
		return fmt.Errorf("logging in as %s: %w", cfg.Customer.Email, err)
	}

	notifier := notice.LogNotifier{Logger: logger}
	co := checkout.New(client, checkout.Options{Notifier: notifier, Logger: logger, Metrics: m})

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = co.Open(openCtx)
	cancel()
	if err != nil {
		// The cart is re-fetched on every GET /cart; start anyway.
		logger.Warn("initial cart load failed", slog.String("error", err.Error()))
	}

	h := handler.New(handler.Deps{
		Checkout: co,
		Catalog:  client,
		Orders:   account.NewOrders(client, account.Options{Notifier: notifier, Logger: logger}),
		Metrics:  m,
		Logger:   logger,
	})

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → logging → metrics → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.Metrics(m),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	sess.Logout()
	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
