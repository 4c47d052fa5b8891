package bootstrap

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

	"github.com/Nachiket-Roy/LMS-sub000/config"
	"github.com/Nachiket-Roy/LMS-sub000/internal/apiclient"
	"github.com/Nachiket-Roy/LMS-sub000/internal/observability/statsd"
	"github.com/Nachiket-Roy/LMS-sub000/internal/service"
)

const shutdownWaitTimeout = 10 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Client     *apiclient.Client
	Library    *apiclient.LibraryAPI
	Auth       *service.AuthService
	Dashboards *service.DashboardService
	Metrics    *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger

	// HTTPClient overrides the backend HTTP client (tests).
	HTTPClient *http.Client
}

// NewServices builds the backend client and the services on top of it. A
// failed session refresh anywhere in the client expires the auth state.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	metricsClient, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.Metrics.IsEnabled(),
		Address: cfg.Observability.Metrics.StatsdAddress,
		Prefix:  cfg.Observability.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		RefreshTimeout: cfg.API.RefreshTimeout,
		UserAgent:      cfg.API.UserAgent,
		HTTPClient:     deps.HTTPClient,
		Logger:         logger,
		Metrics:        metricsClient,
	})
	if err != nil {
		closeMetrics(metricsClient, logger)
		return nil, fmt.Errorf("init api client: %w", err)
	}

	authSvc, err := service.NewAuthService(service.AuthServiceOptions{
		API:    apiclient.NewAuthAPI(client),
		Logger: logger,
	})
	if err != nil {
		closeMetrics(metricsClient, logger)
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	client.OnSessionTerminated(authSvc.ExpireSession)

	library := apiclient.NewLibraryAPI(client)
	dashboards, err := service.NewDashboardService(service.DashboardServiceOptions{
		API:    library,
		Logger: logger,
	})
	if err != nil {
		closeMetrics(metricsClient, logger)
		return nil, fmt.Errorf("init dashboard service: %w", err)
	}

	return &ServiceContainer{
		Client:     client,
		Library:    library,
		Auth:       authSvc,
		Dashboards: dashboards,
		Metrics:    metricsClient,
	}, nil
}

func closeMetrics(c *statsd.Client, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("close metrics client failed", "error", err)
	}
}

// ServiceOrchestrationConfig contains everything RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts the portal server, runs the initial session
// check, and blocks until a shutdown signal arrives or the server fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
		ErrCh:    errCh,
	})

	initDone := make(chan struct{})
	go func() {
		defer close(initDone)
		cfg.Services.Auth.Initialize(serviceCtx)
		st := cfg.Services.Auth.Snapshot()
		logger.InfoContext(serviceCtx, "initial session check finished",
			"authenticated", st.IsAuthenticated,
			"role", st.Role(),
		)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		quit:       quit,
		cancel:     cancel,
		errCh:      errCh,
		httpServer: server,
		initDone:   initDone,
		logger:     logger,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	quit       <-chan os.Signal
	cancel     context.CancelFunc
	errCh      <-chan error
	httpServer *http.Server
	initDone   <-chan struct{}
	logger     *slog.Logger
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops the HTTP server and waits for the session check.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	waitForService(cfg.initDone, "session check", cfg.logger)
	return nil
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
