package etcdclient

import (
	"context"
	"strings"
	"time"

	etcd "go.etcd.io/etcd/client/v3"
	etcdNamespace "go.etcd.io/etcd/client/v3/namespace"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// UseNamespace prefixes all keys, leases and watchers of the client.
func UseNamespace(c *etcd.Client, prefix string) {
	c.KV = etcdNamespace.NewKV(c.KV, prefix)
	c.Watcher = etcdNamespace.NewWatcher(c.Watcher, prefix)
	c.Lease = etcdNamespace.NewLease(c.Lease, prefix)
}

// New creates new etcd client.
// The client is closed when the process is shutting down.
func New(ctx context.Context, proc *servicectx.Process, tel telemetry.Telemetry, logger log.Logger, cfg Config) (*etcd.Client, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger = logger.WithComponent("etcd.client")

	// Internal messages of the etcd client, only warnings and errors
	etcdLogger := log.ZapLogger(logger.WithComponent("internal")).
		WithOptions(zap.IncreaseLevel(zapcore.WarnLevel)).
		With(zap.String("component", "etcd.client.internal"))

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer connectCancel()

	startTime := time.Now()
	logger.Infof(ctx, "connecting to etcd, connectTimeout=%s, keepAliveTimeout=%s, keepAliveInterval=%s", cfg.ConnectTimeout, cfg.KeepAliveTimeout, cfg.KeepAliveInterval)
	c, err := etcd.New(etcd.Config{
		Context:              context.Background(), // !!! a long-lived context must be used, client exists as long as the entire server
		Endpoints:            []string{cfg.Endpoint},
		DialTimeout:          cfg.ConnectTimeout,
		DialKeepAliveTimeout: cfg.KeepAliveTimeout,
		DialKeepAliveTime:    cfg.KeepAliveInterval,
		Username:             cfg.Username, // optional
		Password:             cfg.Password, // optional
		Logger:               etcdLogger,
		PermitWithoutStream:  true, // always send keep-alive pings
		DialOptions: []grpc.DialOption{
			grpc.WithStatsHandler(otelgrpc.NewClientHandler(
				otelgrpc.WithTracerProvider(tel.TracerProvider()),
				otelgrpc.WithMeterProvider(tel.MeterProvider()),
			)),
			grpc.WithBlock(), // wait for the connection
			grpc.WithConnectParams(grpc.ConnectParams{
				Backoff: backoff.Config{
					BaseDelay:  100 * time.Millisecond,
					Multiplier: 1.5,
					Jitter:     0.2,
					MaxDelay:   15 * time.Second,
				},
			}),
		},
	})
	if err != nil {
		return nil, errors.Errorf("cannot create etcd client: cannot connect: %w", err)
	}

	UseNamespace(c, cfg.Namespace)

	// Log each KV operation as a debug message, if enabled
	if cfg.DebugLog {
		c.KV = KVLogWrapper(c.KV, logger.WithComponent("kv"))
	}

	// Connection check: get cluster members
	if _, err := c.MemberList(connectCtx); err != nil {
		_ = c.Close()
		return nil, errors.Errorf("cannot create etcd client: cannot get cluster members: %w", err)
	}

	// Close client when shutting down the server
	proc.OnShutdown(func(ctx context.Context) {
		startTime := time.Now()
		logger.Info(ctx, "closing etcd connection")
		if err := c.Close(); err != nil {
			logger.Warnf(ctx, "cannot close etcd connection: %s", err)
		} else {
			logger.WithDuration(time.Since(startTime)).Info(ctx, "closed etcd connection")
		}
	})

	logger.WithDuration(time.Since(startTime)).Infof(ctx, `connected to etcd cluster "%s"`, strings.Join(c.Endpoints(), ";"))
	return c, nil
}
