package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/yamux"
	"go.uber.org/atomic"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

var ErrClientClosed = errors.New("transport client is closed")

// Client opens streams to other nodes, one multiplexed connection is kept per remote address.
type Client struct {
	logger          log.Logger
	config          network.Config
	protocol        Protocol
	connIDCounter   *atomic.Uint64
	lock            *sync.Mutex
	closed          bool
	connections     map[string]*clientConnection
	connectionsByID map[uint64]*clientConnection
}

type clientConnection struct {
	id         uint64
	remoteAddr string
	sess       *yamux.Session
}

type clientDependencies interface {
	Logger() log.Logger
}

func NewClient(d clientDependencies, cfg network.Config) (*Client, error) {
	protocol, err := NewProtocol(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		logger:          d.Logger().WithComponent("transport.client"),
		config:          cfg,
		protocol:        protocol,
		connIDCounter:   atomic.NewUint64(0),
		lock:            &sync.Mutex{},
		connections:     make(map[string]*clientConnection),
		connectionsByID: make(map[uint64]*clientConnection),
	}, nil
}

// OpenStream opens a new stream to the remote address, the connection is created if needed.
func (c *Client) OpenStream(ctx context.Context, remoteAddr string) (net.Conn, error) {
	conn, err := c.connection(ctx, remoteAddr)
	if err != nil {
		return nil, err
	}

	stream, err := conn.sess.OpenStream()
	if err != nil {
		c.removeConnection(conn)
		return nil, errors.PrefixErrorf(err, `cannot open stream to "%s"`, remoteAddr)
	}

	return stream, nil
}

// ConnectionsCount returns number of opened connections.
func (c *Client) ConnectionsCount() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.connections)
}

// Close all connections, it can be called multiple times.
func (c *Client) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	ctx := context.Background()
	c.logger.Infof(ctx, "closing %d connections", len(c.connections))
	errs := errors.NewMultiError()
	for _, conn := range c.connections {
		if err := conn.sess.Close(); err != nil {
			errs.Append(errors.PrefixErrorf(err, `cannot close connection to "%s"`, conn.remoteAddr))
		}
	}
	c.connections = make(map[string]*clientConnection)
	c.connectionsByID = make(map[uint64]*clientConnection)
	c.logger.Info(ctx, "closed connections")
	return errs.ErrorOrNil()
}

func (c *Client) connection(ctx context.Context, remoteAddr string) (*clientConnection, error) {
	// Reuse an existing connection
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return nil, ErrClientClosed
	}
	if conn, ok := c.connections[remoteAddr]; ok && !conn.sess.IsClosed() {
		c.lock.Unlock()
		return conn, nil
	}
	c.lock.Unlock()

	// Dial without the lock, other addresses are not blocked
	sess, err := c.dial(ctx, remoteAddr)
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		_ = sess.Close()
		return nil, ErrClientClosed
	}

	// Another goroutine was faster
	if existing, ok := c.connections[remoteAddr]; ok && !existing.sess.IsClosed() {
		_ = sess.Close()
		return existing, nil
	}

	conn := &clientConnection{id: c.connIDCounter.Inc(), remoteAddr: remoteAddr, sess: sess}
	c.connections[remoteAddr] = conn
	c.connectionsByID[conn.id] = conn
	c.logger.Infof(ctx, `connection "%d" to "%s" opened`, conn.id, remoteAddr)

	// Forget the connection when it is closed by the remote side
	go func() {
		<-sess.CloseChan()
		c.removeConnection(conn)
	}()

	return conn, nil
}

func (c *Client) dial(ctx context.Context, remoteAddr string) (*yamux.Session, error) {
	b := newDialBackoff(c.config.StreamOpenTimeout)
	conn, err := backoff.RetryWithData(func() (net.Conn, error) {
		return c.protocol.Dial(ctx, remoteAddr)
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, errors.PrefixErrorf(err, `cannot dial "%s/%s"`, c.protocol.Type(), remoteAddr)
	}

	sess, err := yamux.Client(conn, multiplexerConfig(c.logger, c.config))
	if err != nil {
		_ = conn.Close()
		return nil, errors.PrefixErrorf(err, `cannot create session to "%s"`, remoteAddr)
	}

	return sess, nil
}

func (c *Client) removeConnection(conn *clientConnection) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, ok := c.connectionsByID[conn.id]; !ok {
		return
	}

	delete(c.connectionsByID, conn.id)
	if c.connections[conn.remoteAddr] == conn {
		delete(c.connections, conn.remoteAddr)
	}
	_ = conn.sess.Close()
	c.logger.Infof(context.Background(), `connection "%d" to "%s" closed`, conn.id, conn.remoteAddr)
}

func newDialBackoff(maxElapsed time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.RandomizationFactor = 0.2
	b.Multiplier = 2
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = maxElapsed
	b.Reset()
	return b
}
