package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	pgrepo "github.com/textblast/gateway/internal/core_sms/repository/postgres"
	dispatchapp "github.com/textblast/gateway/internal/dispatch_service/app"
	"github.com/textblast/gateway/internal/dispatch_service/provider"
	exportapp "github.com/textblast/gateway/internal/export_service/app"
	"github.com/textblast/gateway/internal/platform/config"
	"github.com/textblast/gateway/internal/platform/database"
	"github.com/textblast/gateway/internal/platform/logger"
	"github.com/textblast/gateway/internal/platform/messagebroker"
	"github.com/textblast/gateway/internal/public_api_service/middleware"
	httptransport "github.com/textblast/gateway/internal/public_api_service/transport/http"
	reconcilerapp "github.com/textblast/gateway/internal/reconciler_service/app"
)

const appName = "textblast-gateway"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Gateway starting...", "port", cfg.ServerPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(rootCtx, cfg.PostgresDSN, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL")

	if err := pgrepo.EnsureSchema(rootCtx, dbPool); err != nil {
		appLogger.Error("Failed to apply database schema", "error", err)
		os.Exit(1)
	}

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, appName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Connected to NATS")

	outboxRepo := pgrepo.NewPgOutboxRepository(dbPool, appLogger)
	inboxRepo := pgrepo.NewPgInboxRepository(dbPool, appLogger)
	optOutRepo := pgrepo.NewPgOptOutRepository(dbPool, appLogger)

	var sender provider.SMSSenderProvider
	switch {
	case cfg.ProviderName == "mock":
		sender = provider.NewMockSMSProvider(appLogger, false, 0)
	case cfg.ProviderConfigured():
		sender = provider.NewTwilioSMSProvider(appLogger, cfg.ProviderAPIURL, cfg.ProviderAccountSID, cfg.ProviderAuthToken, cfg.ProviderFromNumber, nil)
	default:
		// Sends will be refused, but callbacks, logs and exports still work.
		appLogger.Warn("SMS provider credentials not configured, dispatch endpoints will refuse sends")
	}

	statusCallbackURL := cfg.PublicBaseURL + "/api/v1/callbacks/status"
	dispatchService := dispatchapp.NewDispatchService(
		outboxRepo, optOutRepo, sender,
		cfg.SendInterval(), cfg.DefaultCountryCode, statusCallbackURL,
		appLogger,
	)

	notifier := reconcilerapp.NewOptOutNotifier(sender, appLogger)
	reconciler := reconcilerapp.NewReconciler(outboxRepo, inboxRepo, optOutRepo, notifier, appLogger)
	exportService := exportapp.NewExportService(outboxRepo, inboxRepo, optOutRepo, appLogger)

	dlrConsumer := reconcilerapp.NewDLRConsumer(natsClient, reconciler, appLogger)
	if err := dlrConsumer.StartConsuming(rootCtx, httptransport.SubjectDLRRaw, "dlr_processors"); err != nil {
		appLogger.Error("Failed to start DLR consumer", "error", err)
		os.Exit(1)
	}
	defer dlrConsumer.Stop()

	inboundConsumer := reconcilerapp.NewInboundConsumer(natsClient, reconciler, appLogger)
	if err := inboundConsumer.StartConsuming(rootCtx, httptransport.SubjectInboundRaw, "inbound_processors"); err != nil {
		appLogger.Error("Failed to start inbound consumer", "error", err)
		os.Exit(1)
	}
	defer inboundConsumer.Stop()

	validate := validator.New()
	sendHandler := httptransport.NewSendHandler(dispatchService, validate, appLogger)
	callbackHandler := httptransport.NewCallbackHandler(natsClient, validate, appLogger)
	logsHandler := httptransport.NewLogsHandler(outboxRepo, inboxRepo, appLogger)
	exportHandler := httptransport.NewExportHandler(exportService, appLogger)
	webhookAuth := middleware.WebhookAuthMiddleware(cfg.WebhookSecret, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(httptransport.PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Group(func(api chi.Router) {
			// Batch sends are synchronous and rate limited, so they can
			// legitimately outlive the default timeout; only the non-send
			// routes get one.
			sendHandler.RegisterRoutes(api)
		})
		v1.Group(func(api chi.Router) {
			api.Use(chimiddleware.Timeout(60 * time.Second))
			logsHandler.RegisterRoutes(api)
			exportHandler.RegisterRoutes(api)
		})
		v1.Group(func(callbacks chi.Router) {
			callbacks.Use(chimiddleware.Timeout(30 * time.Second))
			callbacks.Use(webhookAuth)
			callbackHandler.RegisterRoutes(callbacks)
		})
	})

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.ServerPort), Handler: r}

	g, gCtx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		appLogger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		appLogger.Info("Shutdown signal received, shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Gateway terminated with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Gateway shut down.")
}
