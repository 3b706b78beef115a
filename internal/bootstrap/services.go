package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/target/balancedesk/config"
	"github.com/target/balancedesk/internal/adapters/artifacts"
	"github.com/target/balancedesk/internal/adapters/jobrunner"
	redisadapter "github.com/target/balancedesk/internal/adapters/redis"
	"github.com/target/balancedesk/internal/adapters/tabular"
	"github.com/target/balancedesk/internal/adapters/xlsxreport"
	"github.com/target/balancedesk/internal/core"
	"github.com/target/balancedesk/internal/data"
	"github.com/target/balancedesk/internal/domain/pivot"
	"github.com/target/balancedesk/internal/domain/reconcile"
	httpx "github.com/target/balancedesk/internal/http"
	"github.com/target/balancedesk/internal/observability/statsd"
	"github.com/target/balancedesk/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs         *service.JobService
	Validation   *service.ValidationService
	Commit       *service.CommitService
	Export       *service.ExportService
	Reaper       *service.ReaperService
	Runner       *jobrunner.Runner
	HealthChecks map[string]httpx.HealthCheck
	Metrics      *statsd.Client

	closers []func() error
}

// Close releases resources owned by the container (metrics socket, storage clients).
func (c *ServiceContainer) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB               // Required when the http service is enabled
	RedisClient redis.UniversalClient // Required when the job store backend is redis
	Logger      *slog.Logger
}

// NewServices wires repositories, adapters, and services for the enabled modes.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &ServiceContainer{HealthChecks: make(map[string]httpx.HealthCheck)}
	c.Metrics = buildMetrics(logger, cfg.Observability.Metrics)
	if c.Metrics != nil {
		c.closers = append(c.closers, c.Metrics.Close)
	}

	cache, err := newJobCache(cfg.Jobs, deps.RedisClient)
	if err != nil {
		return nil, err
	}
	c.HealthChecks["job_store"] = cache.Health

	store, err := newArtifactStore(ctx, cfg.Artifacts)
	if err != nil {
		return nil, err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		c.closers = append(c.closers, closer.Close)
	}

	c.Jobs, err = service.NewJobService(service.JobServiceOptions{
		Cache:   cache,
		TTL:     cfg.Jobs.TTL,
		Logger:  logger,
		Metrics: metricsSink(c.Metrics),
	})
	if err != nil {
		return nil, fmt.Errorf("create job service: %w", err)
	}

	if cfg.IsHTTPServerEnabled() {
		if err := c.buildHTTPServices(deps, cache, store, logger); err != nil {
			return nil, err
		}
	}

	if cfg.IsReaperEnabled() {
		var locker service.SweepLocker
		if deps.RedisClient != nil {
			locker = redisadapter.NewSweepLocker(deps.RedisClient)
		}
		c.Reaper, err = service.NewReaperService(service.ReaperServiceOptions{
			Artifacts: store,
			Cache:     cache,
			Locker:    locker,
			Config:    cfg.Reaper,
			Logger:    logger,
			Metrics:   metricsSink(c.Metrics),
		})
		if err != nil {
			return nil, fmt.Errorf("create reaper service: %w", err)
		}
	}

	return c, nil
}

func (c *ServiceContainer) buildHTTPServices(
	deps *ServiceDeps,
	cache core.CacheRepository,
	store core.ArtifactStore,
	logger *slog.Logger,
) error {
	cfg := deps.Config
	if deps.DB == nil {
		return errors.New("database is required for the http service")
	}
	c.HealthChecks["postgres"] = PingDB(deps.DB)
	ledger := data.NewLedgerRepo(deps.DB)

	runner, err := jobrunner.NewRunner(jobrunner.RunnerOptions{
		Jobs:      c.Jobs,
		Workers:   cfg.Jobs.Workers,
		QueueSize: cfg.Jobs.QueueSize,
		Logger:    logger,
		Metrics:   metricsSink(c.Metrics),
	})
	if err != nil {
		return fmt.Errorf("create job runner: %w", err)
	}
	c.Runner = runner

	aliases, err := tabular.LoadAliases(cfg.Upload.HeaderAliasesFile)
	if err != nil {
		return err
	}
	engine, err := reconcile.NewEngine(reconcile.Options{
		Ledger:      ledger,
		Concurrency: cfg.Upload.ReconcileConcurrency,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create reconcile engine: %w", err)
	}
	c.Validation, err = service.NewValidationService(service.ValidationServiceOptions{
		Parser:    tabular.NewParser(aliases),
		Engine:    engine,
		Submitter: runner,
		MaxBytes:  cfg.Upload.MaxBytes,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create validation service: %w", err)
	}

	c.Commit, err = service.NewCommitService(service.CommitServiceOptions{
		Ledger:    ledger,
		Submitter: runner,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create commit service: %w", err)
	}

	gen, err := pivot.NewGenerator(pivot.GeneratorOptions{
		Directory: ledger,
		Divisor:   decimal.NewFromInt(cfg.Report.DisplayDivisor),
		Title:     cfg.Report.Title,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create report generator: %w", err)
	}
	c.Export, err = service.NewExportService(service.ExportServiceOptions{
		Generator: gen,
		Directory: ledger,
		Renderer:  xlsxreport.Renderer{},
		Artifacts: store,
		Submitter: runner,
		Jobs:      c.Jobs,
		MaxDays:   cfg.Report.MaxDays,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create export service: %w", err)
	}
	return nil
}

//nolint:ireturn // the backend is chosen at runtime.
func newJobCache(cfg config.JobsConfig, client redis.UniversalClient) (core.CacheRepository, error) {
	switch cfg.Backend {
	case config.JobStoreMemory:
		return data.NewMemoryCacheRepo(nil), nil
	default:
		if client == nil {
			return nil, errors.New("redis client is required for the redis job store")
		}
		return data.NewRedisCacheRepo(data.RedisCacheRepoOptions{Client: client, Prefix: cfg.KeyPrefix}), nil
	}
}

//nolint:ireturn // the backend is chosen at runtime.
func newArtifactStore(ctx context.Context, cfg config.ArtifactConfig) (core.ArtifactStore, error) {
	switch cfg.Backend {
	case config.ArtifactGCS:
		store, err := artifacts.NewGCSStore(ctx, artifacts.GCSStoreOptions{
			Bucket:          cfg.GCSBucket,
			Prefix:          cfg.GCSPrefix,
			CredentialsJSON: cfg.GCSCredentialsJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("create gcs artifact store: %w", err)
		}
		return store, nil
	default:
		store, err := artifacts.NewLocalStore(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("create local artifact store: %w", err)
		}
		return store, nil
	}
}

// buildMetrics returns nil when metrics are disabled or the client cannot be created.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// metricsSink avoids handing services a typed-nil interface.
//
//nolint:ireturn // statsd.Sink is the dependency the services accept.
func metricsSink(c *statsd.Client) statsd.Sink {
	if c == nil {
		return nil
	}
	return c
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
		ErrCh:    deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

// newJobRunnerBackgroundService runs the worker pool alongside the HTTP server.
func newJobRunnerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeHTTP,
		name: "job runner",
		start: func(ctx context.Context) error {
			return RunJobRunner(ctx, deps.cfg.Services.Runner)
		},
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			if deps.cfg.Services.Reaper == nil {
				return errors.New("reaper service not configured")
			}
			return RunReaper(ctx, ReaperConfig{
				Reaper:   deps.cfg.Services.Reaper,
				Schedule: deps.cfg.Config.Reaper.Schedule,
				Logger:   deps.logger,
			})
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newJobRunnerBackgroundService(deps),
		newReaperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until ctx is cancelled, a shutdown signal is received,
// or a service fails.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config with AppConfig and services is required")
	}
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		httpTimeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:      logger,
		backgrounds: result.Background,
	})
}

// errorChannelCapacity counts the goroutines that may report a fatal error.
// The http mode runs both the server and the job runner.
func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	if enabled[config.ServiceModeHTTP] {
		count += 2
	}
	if enabled[config.ServiceModeReaper] {
		count++
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	httpTimeout time.Duration
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		return gracefulStop(cfg)
	case <-cfg.ctx.Done():
		cfg.logger.Info("shutting down services...", "reason", cfg.ctx.Err())
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop drains HTTP first so no new jobs are submitted, then cancels
// the background services and waits for in-flight jobs to finish.
func gracefulStop(cfg shutdownConfig) error {
	var shutdownErr error
	if cfg.httpServer != nil {
		shutdownErr = ShutdownHTTPServer(ShutdownConfig{
			Context: context.WithoutCancel(cfg.ctx),
			Server:  cfg.httpServer,
			Timeout: cfg.httpTimeout,
			Logger:  cfg.logger,
		})
	}

	cfg.cancel()
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return shutdownErr
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
