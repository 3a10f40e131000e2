package dependencies

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keboola/cluster-resolver/internal/pkg/service/common/dependencies"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/config"
)

// NewTestConfig returns a configuration suitable for tests, the fetch server listens on a random port.
func NewTestConfig(nodeID string) config.Config {
	cfg := config.New()
	cfg.NodeID = nodeID
	cfg.Hostname = "localhost"
	cfg.Network.Listen = "localhost:0"
	cfg.Distribution.TTLSeconds = 1
	cfg.Distribution.StartupTimeout = 10 * time.Second
	cfg.Resolver.Cluster.FetchTimeout = 2 * time.Second
	return cfg
}

// NewMockedServiceScope creates the node with mocked base dependencies and a real etcd client.
// The test is skipped if etcd is not available.
func NewMockedServiceScope(t *testing.T, cfg config.Config, opts ...dependencies.MockedOption) (ServiceScope, dependencies.Mocked) {
	t.Helper()

	opts = append([]dependencies.MockedOption{dependencies.WithEnabledEtcdClient()}, opts...)
	mock := dependencies.NewMocked(t, opts...)

	scope, err := newServiceScope(context.Background(), mock, cfg)
	require.NoError(t, err)
	return scope, mock
}
