// Package servicectx provides unique ID for a service process and support for the graceful shutdown.
package servicectx

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/keboola/cluster-resolver/internal/pkg/idgenerator"
	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const DefaultShutdownTimeout = 30 * time.Second

type Process struct {
	ctx      context.Context
	cancel   context.CancelFunc
	logger   log.Logger
	config   config
	wg       *sync.WaitGroup
	errCh    chan error
	doneCh   chan struct{}
	waitOnce *sync.Once

	lock        *sync.Mutex
	terminating bool
	onShutdown  []OnShutdownFn
}

// ShutdownFn stops the whole process with the error.
type ShutdownFn func(ctx context.Context, err error)

// OnShutdownFn is invoked when the process is terminating,
// the ctx is limited by the shutdown timeout.
type OnShutdownFn func(ctx context.Context)

type Option func(c *config)

type config struct {
	uniqueID        string
	logger          log.Logger
	shutdownTimeout time.Duration
	withoutSignals  bool
}

// WithUniqueID sets unique ID of the service process.
// By default, it is generated from the hostname and PID.
func WithUniqueID(v string) Option {
	return func(c *config) {
		c.uniqueID = v
	}
}

func WithLogger(v log.Logger) Option {
	return func(c *config) {
		c.logger = v
	}
}

// WithShutdownTimeout limits the duration of all OnShutdown callbacks.
func WithShutdownTimeout(v time.Duration) Option {
	return func(c *config) {
		c.shutdownTimeout = v
	}
}

// WithoutSignals disables SIGINT and SIGTERM handling, it is used in tests.
func WithoutSignals() Option {
	return func(c *config) {
		c.withoutSignals = true
	}
}

func New(opts ...Option) (*Process, error) {
	c := config{shutdownTimeout: DefaultShutdownTimeout}
	for _, o := range opts {
		o(&c)
	}

	if c.logger == nil {
		c.logger = log.NewNopLogger()
	}

	// Generate uniqueID if not set
	if c.uniqueID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, err
		}
		c.uniqueID = fmt.Sprintf(`%s-%05d`, hostname, os.Getpid())
	}

	ctx, cancel := context.WithCancel(context.Background())
	proc := &Process{
		ctx:      ctx,
		cancel:   cancel,
		logger:   c.logger.WithComponent("process"),
		config:   c,
		wg:       &sync.WaitGroup{},
		errCh:    make(chan error, 1),
		doneCh:   make(chan struct{}),
		waitOnce: &sync.Once{},
		lock:     &sync.Mutex{},
	}

	// Setup interrupt handler,
	// so SIGINT and SIGTERM signals cause the services to stop gracefully.
	if !c.withoutSignals {
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			select {
			case sig := <-sigCh:
				proc.Shutdown(context.Background(), errors.Errorf("%s", sig))
			case <-proc.doneCh:
			}
		}()
	}

	proc.logger.Infof(context.Background(), `process unique id "%s"`, proc.UniqueID())
	return proc, nil
}

func NewForTest(t *testing.T) *Process {
	t.Helper()

	proc, err := New(WithUniqueID("test_"+idgenerator.RequestID()), WithoutSignals())
	if err != nil {
		t.Fatal(err)
		return nil
	}

	t.Cleanup(func() {
		proc.Shutdown(context.Background(), errors.New("test cleanup"))
		proc.WaitForShutdown()
	})

	return proc
}

// UniqueID returns unique process ID, it consists of hostname and PID.
func (v *Process) UniqueID() string {
	return v.config.uniqueID
}

// Add an operation.
// The Process is graceful terminated when all operations are completed.
// The ctx parameter is cancelled when the process is terminating.
// The shutdown parameter can be used to stop the whole process with an error.
func (v *Process) Add(operation func(ctx context.Context, shutdown ShutdownFn)) {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		operation(v.ctx, v.Shutdown)
	}()
}

// OnShutdown registers a callback that is invoked when the process is terminating.
// Graceful shutdown waits until the callback has finished.
// Callbacks are invoked sequentially in LIFO order.
func (v *Process) OnShutdown(fn OnShutdownFn) {
	v.lock.Lock()
	defer v.lock.Unlock()
	if v.terminating {
		v.logger.Error(context.Background(), `cannot register OnShutdown callback: the process is terminating`)
		return
	}
	v.onShutdown = append(v.onShutdown, fn)
}

// Shutdown triggers termination of the Process, only the first error is used.
func (v *Process) Shutdown(ctx context.Context, err error) {
	select {
	case v.errCh <- err:
	default:
		v.logger.Debugf(ctx, `shutdown already requested, ignored: %s`, err)
	}
}

// WaitForShutdown blocks until the process is terminated.
// It can be called multiple times, the shutdown is performed only once.
func (v *Process) WaitForShutdown() {
	v.waitOnce.Do(func() {
		defer close(v.doneCh)

		ctx := context.Background()
		v.logger.Infof(ctx, "exiting (%v)", <-v.errCh)

		v.lock.Lock()
		v.terminating = true
		callbacks := v.onShutdown
		v.lock.Unlock()

		// Send cancellation signal to the operations
		v.cancel()

		// Iterate callbacks in reverse order, LIFO
		shutdownCtx, cancel := context.WithTimeout(ctx, v.config.shutdownTimeout)
		defer cancel()
		for i := len(callbacks) - 1; i >= 0; i-- {
			callbacks[i](shutdownCtx)
		}

		// Wait for all operations
		v.wg.Wait()

		v.logger.Info(ctx, "exited")
	})
	<-v.doneCh
}
