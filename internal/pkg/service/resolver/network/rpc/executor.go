package rpc

import (
	"context"
	"net"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/distribution"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/cluster"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network/transport"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

var _ cluster.Executor = (*Executor)(nil)

var ErrExecutorClosed = errors.New("fetch executor is closed")

// https://grpc.io/docs/guides/retry/
// https://grpc.io/docs/guides/service-config/
const serviceConfig = `
{
	"methodConfig": [
		{
			"name": [
				{
					"service": "resolver.Fetcher"
				}
			],
			"waitForReady": false,
			"retryPolicy": {
				"MaxAttempts": 3,
				"InitialBackoff": ".01s",
				"MaxBackoff": ".05s",
				"BackoffMultiplier": 2.0,
				"RetryableStatusCodes": [
					"UNAVAILABLE"
				]
			}
		}
	]
}`

// Executor sends fetch requests to remote peers, it implements the cluster.Executor interface.
// One gRPC connection is kept per peer address.
type Executor struct {
	logger         log.Logger
	telemetry      telemetry.Telemetry
	client         *transport.Client
	maxMessageSize int
	wg             *sync.WaitGroup

	lock     *sync.Mutex
	closed   bool
	conns    map[string]*grpc.ClientConn
	watchers []func()
}

type executorDependencies interface {
	Logger() log.Logger
	Telemetry() telemetry.Telemetry
}

func NewExecutor(d executorDependencies, cfg network.Config) (*Executor, error) {
	client, err := transport.NewClient(d, cfg)
	if err != nil {
		return nil, err
	}

	return &Executor{
		logger:         d.Logger().WithComponent("rpc.executor"),
		telemetry:      d.Telemetry(),
		client:         client,
		maxMessageSize: int(cfg.MaxMessageSize.Bytes()),
		wg:             &sync.WaitGroup{},
		lock:           &sync.Mutex{},
		conns:          make(map[string]*grpc.ClientConn),
	}, nil
}

// Submit starts the fetch in the background, the result is delivered by the PendingFetch.
func (e *Executor) Submit(ctx context.Context, peer cluster.Peer, name artifact.Name) *cluster.PendingFetch {
	f := cluster.NewPendingFetch(peer, name)

	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		f.Complete(artifact.Absent(), ErrExecutorClosed)
		return f
	}

	conn, err := e.connLocked(peer)
	if err != nil {
		f.Complete(artifact.Absent(), err)
		return f
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		resp := &FetchResponse{}
		if err := conn.Invoke(ctx, fetchMethod, &FetchRequest{Name: name.String()}, resp); err != nil {
			f.Complete(artifact.Absent(), err)
			return
		}
		if resp.Found {
			f.Complete(artifact.Found(resp.Data), nil)
		} else {
			f.Complete(artifact.Absent(), nil)
		}
	}()

	return f
}

// Close waits for running fetches and closes all connections.
func (e *Executor) Close() error {
	e.lock.Lock()
	if e.closed {
		e.lock.Unlock()
		return nil
	}
	e.closed = true
	conns := e.conns
	e.conns = make(map[string]*grpc.ClientConn)
	watchers := e.watchers
	e.watchers = nil
	e.lock.Unlock()

	for _, stop := range watchers {
		stop()
	}

	ctx := context.Background()
	e.logger.Infof(ctx, "closing %d peer connections", len(conns))

	errs := errors.NewMultiError()
	for addr, conn := range conns {
		if err := conn.Close(); err != nil {
			errs.Append(errors.PrefixErrorf(err, `cannot close connection to "%s"`, addr))
		}
	}

	e.wg.Wait()

	if err := e.client.Close(); err != nil {
		errs.Append(err)
	}

	e.logger.Info(ctx, "closed peer connections")
	return errs.ErrorOrNil()
}

// RetainPeers closes connections to addresses which are not used by any of the peers.
func (e *Executor) RetainPeers(ctx context.Context, peers []cluster.Peer) {
	keep := make(map[string]bool, len(peers))
	for _, peer := range peers {
		keep[peer.Address] = true
	}

	e.lock.Lock()
	stale := make(map[string]*grpc.ClientConn)
	for addr, conn := range e.conns {
		if !keep[addr] {
			stale[addr] = conn
			delete(e.conns, addr)
		}
	}
	e.lock.Unlock()

	for addr, conn := range stale {
		if err := conn.Close(); err != nil {
			e.logger.Warnf(ctx, `cannot close connection to "%s": %s`, addr, err)
			continue
		}
		e.logger.Infof(ctx, `closed connection to "%s", the peer left`, addr)
	}
}

// WatchMembership closes connections to nodes which left the distribution group.
// The listener is stopped by Close.
func (e *Executor) WatchMembership(listener *distribution.Listener, membership cluster.Membership) {
	e.watch(listener.C, listener.Stop, membership)
}

func (e *Executor) watch(events <-chan distribution.Events, stop func(), membership cluster.Membership) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		stop()
		return
	}
	e.watchers = append(e.watchers, stop)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx := context.Background()
		for batch := range events {
			for _, event := range batch {
				if event.Type == distribution.EventNodeRemoved {
					e.RetainPeers(ctx, membership.Members())
					break
				}
			}
		}
	}()
}

func (e *Executor) connLocked(peer cluster.Peer) (*grpc.ClientConn, error) {
	if peer.Address == "" {
		return nil, errors.Errorf(`peer "%s" has no address`, peer.NodeID)
	}

	if conn, ok := e.conns[peer.Address]; ok {
		return conn, nil
	}

	// Use transport layer with multiplexer for connection
	address := peer.Address
	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return e.client.OpenStream(ctx, address)
	}

	conn, err := grpc.NewClient(
		"passthrough:///"+address,
		grpc.WithSharedWriteBuffer(true),
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultServiceConfig(serviceConfig),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(codecName),
			grpc.MaxCallRecvMsgSize(e.maxMessageSize),
			grpc.MaxCallSendMsgSize(e.maxMessageSize),
		),
		grpc.WithStatsHandler(
			otelgrpc.NewClientHandler(
				otelgrpc.WithTracerProvider(e.telemetry.TracerProvider()),
				otelgrpc.WithMeterProvider(e.telemetry.MeterProvider()),
				otelgrpc.WithPropagators(e.telemetry.Propagator()),
			),
		),
	)
	if err != nil {
		return nil, errors.PrefixErrorf(err, `cannot create connection to the peer "%s"`, peer.NodeID)
	}

	e.conns[address] = conn
	e.logger.Infof(context.Background(), `created connection to the peer "%s" at "%s"`, peer.NodeID, address)
	return conn, nil
}
