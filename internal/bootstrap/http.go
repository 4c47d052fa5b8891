package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Nachiket-Roy/LMS-sub000/config"
	httpx "github.com/Nachiket-Roy/LMS-sub000/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger

	// ErrCh receives the listener error if the server stops unexpectedly.
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil || cfg.Services == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := BuildHTTPHandler(cfg.Services, appCfg.HTTP, logger)
	return startServer(serverParams{
		logger:  logger,
		handler: handler,
		addr:    appCfg.HTTP.Addr,
		errCh:   cfg.ErrCh,
	})
}

// BuildHTTPHandler assembles the portal router from the service container.
func BuildHTTPHandler(services *ServiceContainer, httpCfg config.HTTPConfig, logger *slog.Logger) http.Handler {
	return httpx.NewRouter(httpx.RouterServices{
		Auth:       services.Auth,
		Dashboards: services.Dashboards,
		Catalog:    services.Library,
		HTTP:       httpCfg,
		Logger:     logger,
	})
}

type serverParams struct {
	logger  *slog.Logger
	handler http.Handler
	addr    string
	errCh   chan<- error
}

func startServer(p serverParams) *http.Server {
	// Guard against empty addr to avoid listening on all interfaces
	addr := p.addr
	if addr == "" {
		addr = config.DefaultHTTPAddr
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      p.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		p.logger.Error("HTTP listen failed", "addr", addr, "error", err)
		reportErr(p.errCh, err)
		return nil
	}
	server.Addr = ln.Addr().String()

	go func() {
		p.logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("HTTP server failed", "error", err)
			reportErr(p.errCh, err)
		}
	}()

	return server
}

func reportErr(ch chan<- error, err error) {
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownWaitTimeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
