// Package httpserver provides the HTTP server with the shared middlewares, error responses and graceful shutdown.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/httpserver/middleware"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const (
	requestTimeout          = 30 * time.Second
	readHeaderTimeout       = 10 * time.Second
	gracefulShutdownTimeout = 30 * time.Second
)

type HTTPServer struct {
	*http.Server
	logger        log.Logger
	proc          *servicectx.Process
	listenAddress string
}

type dependencies interface {
	Logger() log.Logger
	Process() *servicectx.Process
	Telemetry() telemetry.Telemetry
}

// New creates new instance of HTTP server that is not running yet.
func New(ctx context.Context, d dependencies, cfg Config) *HTTPServer {
	server := &HTTPServer{
		logger:        d.Logger().WithComponent("http-server"),
		proc:          d.Process(),
		listenAddress: cfg.ListenAddress,
	}
	server.logger.Infof(ctx, `starting HTTP server on %q`, server.listenAddress)

	// Create server components
	com := newComponents(cfg, server.logger)

	// Register middlewares
	middlewareCfg := middleware.NewConfig(cfg.MiddlewareOptions...)
	com.Muxer.UseHandler(middleware.OpenTelemetryExtractRoute())
	tel := d.Telemetry()
	handler := middleware.Wrap(
		com.Muxer,
		middleware.ContextTimeout(requestTimeout),
		middleware.RequestInfo(),
		middleware.Filter(middlewareCfg),
		middleware.Logger(server.logger),
		middleware.OpenTelemetry(tel.TracerProvider(), tel.MeterProvider(), tel.Propagator(), middlewareCfg),
		middleware.OpenTelemetryApdex(tel.MeterProvider()),
	)

	// Mount endpoints
	cfg.Mount(com)
	server.logger.Infof(ctx, "mounted HTTP endpoints")

	// Prepare HTTP server
	server.Server = &http.Server{
		Addr:              server.listenAddress,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          log.NewStdErrorLogger(server.logger),
	}
	return server
}

// Start HTTP server.
func (h *HTTPServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", h.listenAddress)
	if err != nil {
		return errors.PrefixErrorf(err, `cannot listen on %q`, h.listenAddress)
	}

	// Start HTTP server in a separate goroutine.
	h.proc.Add(func(_ context.Context, shutdown servicectx.ShutdownFn) {
		h.logger.Infof(ctx, "started HTTP server on %q", listener.Addr().String())
		serverErr := h.Serve(listener) // Serve blocks while the server is running
		if errors.Is(serverErr, http.ErrServerClosed) {
			return
		}
		shutdown(context.WithoutCancel(ctx), serverErr)
	})

	// Register graceful shutdown
	h.proc.OnShutdown(func(ctx context.Context) {
		// Shutdown gracefully with a timeout.
		ctx, cancel := context.WithTimeoutCause(ctx, gracefulShutdownTimeout, errors.New("graceful shutdown timeout"))
		defer cancel()

		h.logger.Infof(ctx, "shutting down HTTP server at %q", h.listenAddress)

		if err := h.Shutdown(ctx); err != nil {
			h.logger.Errorf(ctx, `HTTP server shutdown error: %s`, err)
		}
		h.logger.Info(ctx, "HTTP server shutdown finished")
	})

	return nil
}
