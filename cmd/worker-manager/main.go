// cmd/worker-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ichra-workers/internal/catalog"
	awsclients "ichra-workers/internal/common/aws"
	"ichra-workers/internal/common/camunda"
	"ichra-workers/internal/common/config"
	"ichra-workers/internal/common/database"
	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/observability"
	"ichra-workers/internal/recommendation"
	"ichra-workers/pkg/registry"

	fep "ichra-workers/internal/workers/recommendation/fetch-eligible-plans"
	gr "ichra-workers/internal/workers/recommendation/generate-recommendations"
	sp "ichra-workers/internal/workers/recommendation/score-plans"
	srs "ichra-workers/internal/workers/recommendation/send-recommendation-summary"
	sr "ichra-workers/internal/workers/recommendation/select-recommendations"
	vp "ichra-workers/internal/workers/recommendation/validate-profile"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// connect opens a client and pings it, retrying with backoff. A client whose
// ping fails is closed before the next attempt.
func connect[C pinger](
	ctx context.Context,
	open func() (C, error),
	maxRetries int,
	initialDelay time.Duration,
	log *zap.Logger,
	name string,
) (C, error) {
	var client C
	err := retryWithBackoff(func() error {
		c, err := open()
		if err != nil {
			return err
		}
		if err := c.Ping(ctx); err != nil {
			if closer, ok := any(c).(interface{ Close() error }); ok {
				_ = closer.Close()
			}
			return err
		}
		client = c
		return nil
	}, maxRetries, initialDelay, log, name)
	return client, err
}

type registration struct {
	taskType string
	handler  camunda.JobHandler
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("catalogBackend", cfg.Catalog.Backend),
	)

	obs, err := observability.New(cfg.Observability)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer func() {
		if err := obs.Shutdown(); err != nil {
			zapLog.Warn("observability shutdown", zap.Error(err))
		}
	}()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Plan catalog ---
	plans, closeCatalog, err := buildCatalog(ctx, cfg, zapLog, log)
	if err != nil {
		zapLog.Fatal("plan catalog setup failed", zap.Error(err))
	}
	defer closeCatalog()

	// --- Notifications ---
	var emailSender awsclients.EmailSender
	var smsPublisher awsclients.SMSPublisher
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		clients, err := awsclients.NewClients(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws clients failed", zap.Error(err))
		}
		emailSender, smsPublisher = clients.SES, clients.SNS
		zapLog.Info("AWS notification clients initialized", zap.String("region", cfg.Notifications.AWS.Region))
	}

	// --- Workers ---
	registrations, err := buildRegistrations(cfg, plans, emailSender, smsPublisher, log)
	if err != nil {
		zapLog.Fatal("worker configuration invalid", zap.Error(err))
	}

	checkRegistry(cfg, registrations, zapLog)

	var jobWorkers []worker.JobWorker
	for _, reg := range registrations {
		wcfg := config.GetWorkerConfig(cfg, reg.taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", reg.taskType))
			continue
		}
		jobWorkers = append(jobWorkers, camunda.StartWorker(zeebe.Zeebe(), reg.taskType, wcfg, reg.handler, obs, log))
	}
	zapLog.Info("workers started", zap.Int("count", len(jobWorkers)))

	// --- Health & Metrics Server ---
	server := newHealthServer(cfg.Observability.MetricsPort, zeebe)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range jobWorkers {
		w.Close()
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// buildCatalog connects the configured catalog backend and wraps it in the
// Redis cache when enabled. The returned func releases every connection.
func buildCatalog(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (recommendation.PlanRepository, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	var repo recommendation.PlanRepository

	switch cfg.Catalog.Backend {
	case config.BackendPostgres:
		pg, err := connect(ctx, func() (*database.PostgresClient, error) {
			return database.NewPostgres(cfg.Database.Postgres)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, pg.Close)
		zapLog.Info("PostgreSQL connected successfully")

		if cfg.Catalog.RunMigrations {
			if err := database.RunMigrations(ctx, pg.DB); err != nil {
				cleanup()
				return nil, func() {}, err
			}
			zapLog.Info("catalog migrations applied")
		}
		repo = catalog.NewPostgresRepository(pg.DB, cfg.Catalog.MaxResults, log)

	case config.BackendElasticsearch:
		es, err := connect(ctx, func() (*database.ElasticsearchClient, error) {
			return database.NewElasticsearch(cfg.Database.Elasticsearch)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, cleanup, err
		}
		zapLog.Info("Elasticsearch connected successfully")

		if err := es.EnsurePlanIndex(ctx, cfg.Catalog.Index); err != nil {
			return nil, cleanup, err
		}
		repo = catalog.NewElasticsearchRepository(es.Client, cfg.Catalog.Index, cfg.Catalog.MaxResults, log)

	default:
		return nil, cleanup, fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
	}

	if cfg.Catalog.CacheEnabled {
		rdb, err := connect(ctx, func() (*database.RedisClient, error) {
			return database.NewRedis(cfg.Database.Redis)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, rdb.Close)
		zapLog.Info("Redis connected successfully")

		repo = catalog.NewCachedRepository(repo, rdb.Client, config.GetDuration(cfg.Catalog.CacheTTL), log)
	}

	return repo, cleanup, nil
}

func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if d := config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout); d > 0 {
		return d
	}
	return fallback
}

func buildRegistrations(
	cfg *config.Config,
	plans recommendation.PlanRepository,
	emailSender awsclients.EmailSender,
	smsPublisher awsclients.SMSPublisher,
	log logger.Logger,
) ([]registration, error) {
	vpCfg := vp.DefaultConfig()
	vpCfg.Timeout = workerTimeout(cfg, vp.TaskType, vpCfg.Timeout)

	fepCfg := fep.DefaultConfig()
	fepCfg.Timeout = workerTimeout(cfg, fep.TaskType, fepCfg.Timeout)

	spCfg := sp.DefaultConfig()
	spCfg.Timeout = workerTimeout(cfg, sp.TaskType, spCfg.Timeout)

	srCfg := sr.DefaultConfig()
	srCfg.Timeout = workerTimeout(cfg, sr.TaskType, srCfg.Timeout)

	grCfg := gr.DefaultConfig()
	grCfg.Timeout = workerTimeout(cfg, gr.TaskType, grCfg.Timeout)

	srsCfg := srs.DefaultConfig()
	srsCfg.Timeout = workerTimeout(cfg, srs.TaskType, srsCfg.Timeout)
	srsCfg.EmailEnabled = cfg.Notifications.Email.Enabled
	srsCfg.FromEmail = cfg.Notifications.Email.FromEmail
	srsCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
	srsCfg.SenderID = cfg.Notifications.SMS.SenderID

	validators := map[string]interface{ Validate() error }{
		vp.TaskType:  vpCfg,
		fep.TaskType: fepCfg,
		sp.TaskType:  spCfg,
		sr.TaskType:  srCfg,
		gr.TaskType:  grCfg,
		srs.TaskType: srsCfg,
	}
	for taskType, v := range validators {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", taskType, err)
		}
	}

	return []registration{
		{vp.TaskType, vp.NewHandler(vpCfg, log)},
		{fep.TaskType, fep.NewHandler(fepCfg, plans, log)},
		{sp.TaskType, sp.NewHandler(spCfg, log)},
		{sr.TaskType, sr.NewHandler(srCfg, log)},
		{gr.TaskType, gr.NewHandler(grCfg, plans, log)},
		{srs.TaskType, srs.NewHandler(srsCfg, emailSender, smsPublisher, log)},
	}, nil
}

// checkRegistry warns about enabled workers the activity registry does not describe.
func checkRegistry(cfg *config.Config, registrations []registration, zapLog *zap.Logger) {
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry unavailable", zap.String("path", cfg.Registry.Path), zap.Error(err))
		return
	}

	var enabled []string
	for _, r := range registrations {
		if config.IsWorkerEnabled(cfg, r.taskType) {
			enabled = append(enabled, r.taskType)
		}
	}
	for _, taskType := range reg.MissingTaskTypes(enabled) {
		zapLog.Warn("enabled worker missing from activity registry", zap.String("taskType", taskType))
	}
}

func newHealthServer(port int, zeebe *camunda.Client) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
