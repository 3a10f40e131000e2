package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/cluster-resolver/internal/pkg/env"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/configmap"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/cluster"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/config"
	"github.com/keboola/cluster-resolver/internal/pkg/validator"
)

func TestConfig_Default(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.NodeID = "node1"
	cfg.Etcd.Endpoint = "localhost:2379"
	cfg.Normalize()
	require.NoError(t, validator.New().Validate(context.Background(), cfg))
	require.NoError(t, cfg.Validate())
}

func TestConfig_Invalid(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.Metrics.Listen = cfg.API.Listen
	cfg.Resolver.Cluster.FanOut = "foo"
	cfg.Resolver.Policy.DelegatePrefixes = nil

	err := validator.New().Validate(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nodeID" is a required field`)
	assert.Contains(t, err.Error(), `"etcd.endpoint" is a required field`)
	assert.Contains(t, err.Error(), `"resolver.fanOut" must be one of [sequential parallel]`)
	assert.Contains(t, err.Error(), `"resolver.delegatePrefixes" is a required field`)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `etcd endpoint is not set`)
	assert.Contains(t, err.Error(), `"api.listen" and "metrics.listen" must be different, found "0.0.0.0:8000"`)
}

func TestConfig_Bind(t *testing.T) {
	t.Parallel()

	envs := env.FromMap(map[string]string{
		"RESOLVER_ETCD_ENDPOINT":            "etcd:2379",
		"RESOLVER_ETCD_PASSWORD":            "secret",
		"RESOLVER_RESOLVER_FETCH_TIMEOUT":   "2s",
		"RESOLVER_RESOLVER_FAN_OUT":         "parallel",
		"RESOLVER_NETWORK_TRANSPORT":        "kcp",
		"RESOLVER_CACHE_NEAR_CACHE_SIZE":    "1MB",
		"RESOLVER_DISTRIBUTION_TTL_SECONDS": "5",
	})

	cfg := config.New()
	err := configmap.Bind(configmap.BindSpec{
		Args:      []string{"--node-id", "node1", "--resolver-delegate-prefixes", "platform.,std."},
		Envs:      envs,
		EnvNaming: env.NewNamingConvention(config.EnvPrefix),
	}, &cfg)
	require.NoError(t, err)

	assert.Equal(t, "node1", cfg.NodeID)
	assert.Equal(t, "etcd:2379", cfg.Etcd.Endpoint)
	assert.Equal(t, "cluster-resolver/", cfg.Etcd.Namespace)
	assert.Equal(t, 2*time.Second, cfg.Resolver.Cluster.FetchTimeout)
	assert.Equal(t, cluster.FanOutParallel, cfg.Resolver.Cluster.FanOut)
	assert.Equal(t, cluster.PeerOrderSorted, cfg.Resolver.Cluster.PeerOrder)
	assert.Equal(t, []string{"platform.", "std."}, cfg.Resolver.Policy.DelegatePrefixes)
	assert.Equal(t, "kcp", string(cfg.Network.Transport))
	assert.Equal(t, datasize.MB, cfg.Cache.MaxSize)
	assert.Equal(t, 5, cfg.Distribution.TTLSeconds)
	assert.Equal(t, ".bin", cfg.Store.Extension)
}

func TestConfig_Dump(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.NodeID = "node1"
	cfg.Etcd.Password = "secret"

	dump, err := configmap.DumpAs(cfg, "yaml")
	require.NoError(t, err)
	assert.Contains(t, string(dump), "nodeID: node1")
	assert.Contains(t, string(dump), "fetchTimeout: 5s")
	assert.NotContains(t, string(dump), "secret")
}
