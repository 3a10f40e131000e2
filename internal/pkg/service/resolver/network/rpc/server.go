package rpc

import (
	"context"
	"encoding/base64"
	"net"
	"time"

	"github.com/c2h5oh/datasize"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network/transport"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// messageOverhead is the size of the FetchResponse without the data.
const messageOverhead = 64

// LocalFetcher is the strictly local lookup, see fetcher.Fetcher.
type LocalFetcher interface {
	Fetch(ctx context.Context, name artifact.Name) artifact.Bytes
}

// Server answers fetch requests of other peers from the local store of the node.
type Server struct {
	logger         log.Logger
	fetcher        LocalFetcher
	maxMessageSize datasize.ByteSize
	listener       *transport.Server
	srv            *grpc.Server
}

type serverDependencies interface {
	Logger() log.Logger
	Telemetry() telemetry.Telemetry
	Process() *servicectx.Process
}

func StartServer(d serverDependencies, cfg network.Config, nodeID string, fetcher LocalFetcher) (*Server, error) {
	listener, err := transport.Listen(d, cfg, nodeID)
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:         d.Logger().WithComponent("rpc.server"),
		fetcher:        fetcher,
		maxMessageSize: cfg.MaxMessageSize,
		listener:       listener,
		srv: grpc.NewServer(
			grpc.SharedWriteBuffer(true),
			grpc.MaxRecvMsgSize(int(cfg.MaxMessageSize.Bytes())),
			grpc.MaxSendMsgSize(int(cfg.MaxMessageSize.Bytes())),
			grpc.StatsHandler(
				otelgrpc.NewServerHandler(
					otelgrpc.WithTracerProvider(d.Telemetry().TracerProvider()),
					otelgrpc.WithMeterProvider(d.Telemetry().MeterProvider()),
					otelgrpc.WithPropagators(d.Telemetry().Propagator()),
				),
			),
		),
	}
	s.srv.RegisterService(&serviceDesc, s)

	// Graceful shutdown
	d.Process().OnShutdown(func(ctx context.Context) {
		s.logger.Info(ctx, "closing fetch server")
		s.stop(ctx, cfg.ShutdownTimeout)
		s.logger.Info(ctx, "closed fetch server")
	})

	// Start server
	d.Process().Add(func(ctx context.Context, shutdown servicectx.ShutdownFn) {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			shutdown(context.WithoutCancel(ctx), errors.PrefixError(err, "fetch server failed"))
		}
	})

	return s, nil
}

// Addr returns the listen address of the server.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Port returns the listen port of the server.
func (s *Server) Port() int {
	return s.listener.Port()
}

// Fetch implements the "resolver.Fetcher/Fetch" method.
func (s *Server) Fetch(ctx context.Context, req *FetchRequest) (*FetchResponse, error) {
	name := artifact.Name(req.Name)
	if err := name.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result := s.fetcher.Fetch(ctx, name)

	// Report the limit explicitly, the caller sees only the status
	if size := encodedSize(result); size > s.maxMessageSize {
		s.logger.Errorf(
			ctx,
			`artifact "%s" cannot be sent, encoded size %s exceeds the maximum message size %s, see "network.maxMessageSize"`,
			name, size.HumanReadable(), s.maxMessageSize.HumanReadable(),
		)
		return nil, status.Errorf(
			codes.ResourceExhausted,
			`artifact "%s" is too large: encoded size %s exceeds the maximum message size %s`,
			name, size.HumanReadable(), s.maxMessageSize.HumanReadable(),
		)
	}

	return &FetchResponse{Found: result.IsFound(), Data: result.Data()}, nil
}

func encodedSize(result artifact.Bytes) datasize.ByteSize {
	return datasize.ByteSize(base64.StdEncoding.EncodedLen(len(result.Data())) + messageOverhead)
}

func (s *Server) stop(ctx context.Context, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.srv.GracefulStop()
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warnf(ctx, "graceful stop timeout after %s, stopping", timeout)
		s.srv.Stop()
		<-done
	case <-ctx.Done():
		s.srv.Stop()
		<-done
	}
}
