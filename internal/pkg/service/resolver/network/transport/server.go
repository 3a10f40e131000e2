package transport

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/hashicorp/yamux"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// Server accepts connections of other nodes and multiplexes them to streams.
// It implements the net.Listener interface, each accepted net.Conn is a stream.
type Server struct {
	logger   log.Logger
	config   network.Config
	listener net.Listener
	streams  chan net.Conn
	closed   chan struct{}
	close    *sync.Once
	wg       *sync.WaitGroup

	lock     *sync.Mutex
	sessions map[*yamux.Session]bool
}

type dependencies interface {
	Logger() log.Logger
	Process() *servicectx.Process
}

// Listen starts the server, it is closed on the process shutdown.
func Listen(d dependencies, cfg network.Config, nodeID string) (*Server, error) {
	protocol, err := NewProtocol(cfg)
	if err != nil {
		return nil, err
	}

	listener, err := protocol.Listen(cfg.Listen)
	if err != nil {
		return nil, errors.PrefixErrorf(err, `cannot listen on "%s"`, cfg.Listen)
	}

	s := &Server{
		logger:   d.Logger().WithComponent("transport.server"),
		config:   cfg,
		listener: listener,
		streams:  make(chan net.Conn),
		closed:   make(chan struct{}),
		close:    &sync.Once{},
		wg:       &sync.WaitGroup{},
		lock:     &sync.Mutex{},
		sessions: make(map[*yamux.Session]bool),
	}

	ctx := context.Background()
	s.logger.Infof(ctx, `node "%s" listening on "%s/%s"`, nodeID, protocol.Type(), listener.Addr().String())

	d.Process().OnShutdown(func(ctx context.Context) {
		if err := s.Close(); err != nil {
			s.logger.Errorf(ctx, "cannot close server: %s", err)
		}
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptConnections(ctx)
	}()

	return s, nil
}

// Accept waits for a new stream.
func (s *Server) Accept() (net.Conn, error) {
	select {
	case <-s.closed:
		return nil, net.ErrClosed
	case stream := <-s.streams:
		return stream, nil
	}
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Port returns the port of the listener, it is useful if the server listens on a random port.
func (s *Server) Port() int {
	_, port, err := net.SplitHostPort(s.listener.Addr().String())
	if err != nil {
		return 0
	}
	v, _ := strconv.Atoi(port)
	return v
}

// Close stops the listener and all sessions, it can be called multiple times.
func (s *Server) Close() error {
	var err error
	s.close.Do(func() {
		ctx := context.Background()
		s.logger.Info(ctx, "closing server")

		close(s.closed)
		if closeErr := s.listener.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			err = errors.PrefixError(closeErr, "cannot close listener")
		}

		s.lock.Lock()
		s.logger.Infof(ctx, "closing %d sessions", len(s.sessions))
		for sess := range s.sessions {
			_ = sess.Close()
		}
		s.lock.Unlock()

		s.wg.Wait()
		s.logger.Info(ctx, "closed server")
	})
	return err
}

func (s *Server) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Server) acceptConnections(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if s.isClosed() {
			if conn != nil {
				_ = conn.Close()
			}
			return
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Errorf(ctx, "cannot accept connection: %s", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	s.logger.Infof(ctx, `accepted connection from "%s"`, conn.RemoteAddr().String())

	sess, err := yamux.Server(conn, multiplexerConfig(s.logger, s.config))
	if err != nil {
		_ = conn.Close()
		s.logger.Errorf(ctx, `cannot create session for "%s": %s`, conn.RemoteAddr().String(), err)
		return
	}

	if !s.registerSession(sess) {
		_ = sess.Close()
		return
	}
	defer s.unregisterSession(sess)

	for {
		stream, err := sess.AcceptStream()
		if err != nil {
			if !s.isClosed() && !sess.IsClosed() {
				s.logger.Errorf(ctx, `cannot accept stream from "%s": %s`, conn.RemoteAddr().String(), err)
			}
			break
		}

		select {
		case s.streams <- stream:
		case <-s.closed:
			_ = stream.Close()
			return
		}
	}

	s.logger.Infof(ctx, `closed connection from "%s"`, conn.RemoteAddr().String())
}

func (s *Server) registerSession(sess *yamux.Session) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.isClosed() {
		return false
	}
	s.sessions[sess] = true
	return true
}

func (s *Server) unregisterSession(sess *yamux.Session) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.sessions, sess)
	_ = sess.Close()
}
