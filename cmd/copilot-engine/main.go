package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/advisor"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/cache"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/collector"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/config"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/correlation"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/credentials"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/metrics"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/providers"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/services"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/store"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting copilot-engine", slog.String("metrics", cfg.Server.MetricsAddress))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := store.Open(cfg.Database.DSN, logger)
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	decryptor, err := loadDecryptor(cfg.Credentials.KeyPath)
	if err != nil {
		logger.Error("failed to load credential key", slog.String("path", cfg.Credentials.KeyPath), slog.Any("error", err))
		os.Exit(1)
	}

	factory := providerFactory(cfg, decryptor, logger)
	orchestrator := collector.NewOrchestrator(factory, db, db, db,
		utils.ComponentLogger(logger, "collector"))

	signalCache := cache.NewMemoryProvider(nil)
	defer signalCache.Close()
	engine := correlation.NewEngine(db, db, signalCache,
		utils.ComponentLogger(logger, "correlation"),
		correlation.WithSignalTTL(cfg.Cache.SignalTTL))

	ruleAdvisor, err := advisor.New(cfg.Rules.Path, logger)
	if err != nil {
		logger.Error("failed to load rule pack", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info(ruleAdvisor.DescribeRules())

	ops := services.NewOpsService(logger, db, orchestrator, engine, factory, db, ruleAdvisor)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go collectionLoop(ctx, logger, cfg.Collection, ops)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("copilot-engine stopped")
}

// collectionLoop sweeps every registered account on the configured interval.
// Scheduling lives here in the binary; the collector itself only runs single
// accounts on demand.
func collectionLoop(ctx context.Context, logger *slog.Logger, cfg config.CollectionConfig, ops *services.OpsService) {
	if cfg.Interval <= 0 {
		logger.Info("background collection disabled")
		return
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		rng := collectionWindow(time.Now(), cfg.WindowDays)
		results := ops.CollectAll(ctx, rng)
		failed := 0
		for _, r := range results {
			if !r.Success {
				failed++
			}
		}
		logger.Info("collection sweep finished",
			slog.Int("accounts", len(results)),
			slog.Int("failed", failed))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func collectionWindow(now time.Time, windowDays int) models.DateRange {
	if windowDays <= 0 {
		windowDays = 30
	}
	end := utils.TruncateToDay(now)
	return models.DateRange{Start: end.AddDate(0, 0, -windowDays), End: end}
}

func loadDecryptor(path string) (*credentials.Decryptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key := []byte(strings.TrimSpace(string(raw)))
	return credentials.NewDecryptor(key)
}

func providerFactory(cfg *config.Config, decryptor *credentials.Decryptor, logger *slog.Logger) collector.ProviderFactory {
	return func(account models.CloudAccount) (providers.CloudProvider, error) {
		creds, err := decryptor.Decrypt(account.CredentialBlob)
		if err != nil {
			return nil, err
		}
		var pc config.ProviderConfig
		switch account.Provider {
		case models.ProviderAWS:
			pc = cfg.Providers.AWS
		case models.ProviderAzure:
			pc = cfg.Providers.Azure
		case models.ProviderGCP:
			pc = cfg.Providers.GCP
		}
		return providers.New(account.Provider, creds, providers.Config{
			BaseURL:        pc.BaseURL,
			Timeout:        pc.Timeout,
			MaxAttempts:    pc.MaxAttempts,
			RetryBaseDelay: pc.RetryBaseDelay,
		}, logger)
	}
}
