package dependencies

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/etcdhelper"
)

// Mocked dependencies for tests.
type Mocked interface {
	BaseScope
	EtcdClientScope
	DebugLogger() log.DebugLogger
	TestTelemetry() telemetry.ForTest
}

type mocked struct {
	*baseScope
	t           *testing.T
	config      mockedConfig
	debugLogger log.DebugLogger
	telemetry   telemetry.ForTest
	etcdClient  *etcd.Client
}

type MockedOption func(c *mockedConfig)

type mockedConfig struct {
	clock         clockwork.Clock
	enabledEtcd   bool
	etcdNamespace string
}

func WithClock(v clockwork.Clock) MockedOption {
	return func(c *mockedConfig) {
		c.clock = v
	}
}

// WithEnabledEtcdClient creates a namespaced etcd client for the test,
// the test is skipped if the UNIT_ETCD_ENDPOINT environment variable is not set.
func WithEnabledEtcdClient() MockedOption {
	return func(c *mockedConfig) {
		c.enabledEtcd = true
	}
}

// WithEtcdNamespace shares the etcd namespace between multiple mocked scopes, for example between two nodes.
func WithEtcdNamespace(v string) MockedOption {
	return func(c *mockedConfig) {
		c.enabledEtcd = true
		c.etcdNamespace = v
	}
}

func NewMocked(t *testing.T, opts ...MockedOption) Mocked {
	t.Helper()

	cfg := mockedConfig{clock: clockwork.NewRealClock()}
	for _, o := range opts {
		o(&cfg)
	}

	logger := log.NewDebugLogger()
	tel := telemetry.NewForTest()

	proc, err := servicectx.New(servicectx.WithLogger(logger), servicectx.WithUniqueID("test-"+t.Name()), servicectx.WithoutSignals())
	if err != nil {
		t.Fatal(err)
	}

	v := &mocked{
		baseScope:   newBaseScope(cfg.clock, logger, tel, proc),
		t:           t,
		config:      cfg,
		debugLogger: logger,
		telemetry:   tel,
	}

	if cfg.enabledEtcd {
		v.etcdClient = etcdhelper.ClientForTest(t, cfg.etcdNamespace)
	}

	t.Cleanup(func() {
		proc.Shutdown(context.Background(), errors.New("test cleanup"))
		proc.WaitForShutdown()
	})

	return v
}

func (v *mocked) DebugLogger() log.DebugLogger {
	return v.debugLogger
}

func (v *mocked) TestTelemetry() telemetry.ForTest {
	return v.telemetry
}

func (v *mocked) EtcdClient() *etcd.Client {
	if v.etcdClient == nil {
		v.t.Fatal("etcd client is not enabled, use WithEnabledEtcdClient option")
	}
	return v.etcdClient
}
