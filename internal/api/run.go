// Package api serves the resolver and the tools over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/intent"
	"github.com/cchalm/repo-assistant/internal/tools"
)

const shutdownTimeout = 10 * time.Second

// Config holds what the server needs beyond its handlers' dependencies
type Config struct {
	Dev bool
}

// Deps are shared by every request. None of them is mutated after New
type Deps struct {
	GitHub          tools.GitHub
	Resolver        intent.Resolver
	FallbackPerPage int
	Registry        *tools.ToolRegistry
}

// New builds the echo instance with middleware and routes
func New(cfg Config, deps Deps, l *zap.Logger) *echo.Echo {
	e := echo.New()

	if !cfg.Dev {
		e.HideBanner = true
		e.HidePort = true
	}
	if deps.Registry == nil {
		deps.Registry = tools.NewToolRegistry()
	}

	configureMiddleware(e, l)
	configureRoutes(e, &handlers{deps: deps}, l)

	return e
}

// Run serves e until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, e *echo.Echo, port int, l *zap.Logger) error {
	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           e,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("starting API server", zap.String("addr", server.Addr))
		if err := e.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("error starting echo server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	l.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func configureMiddleware(e *echo.Echo, l *zap.Logger) {
	// Request ID must come first
	e.Use(middleware.RequestID())

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1 << 12, // 4 KB
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			l.Error("recovered from panic",
				zap.Error(err),
				zap.ByteString("stack", stack),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		},
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			l.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
		LogLatency:   true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogURI:       true,
		LogRequestID: true,
		LogStatus:    true,
	}))

	e.Use(middleware.BodyLimit("1M"))
}
