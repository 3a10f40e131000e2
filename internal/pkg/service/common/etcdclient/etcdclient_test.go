package etcdclient_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/etcdclient"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/etcdhelper"
)

func TestConfig_NormalizeAndValidate(t *testing.T) {
	t.Parallel()

	cfg := etcdclient.NewConfig()
	cfg.Endpoint = " localhost:2379/ "
	cfg.Namespace = "/my-namespace/"
	cfg.Normalize()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:2379", cfg.Endpoint)
	assert.Equal(t, "my-namespace/", cfg.Namespace)

	cfg = etcdclient.NewConfig()
	cfg.Normalize()
	require.EqualError(t, cfg.Validate(), "etcd endpoint is not set")

	cfg.Endpoint = "localhost:2379"
	cfg.Namespace = ""
	cfg.Normalize()
	require.EqualError(t, cfg.Validate(), "etcd namespace is not set")
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	proc := servicectx.NewForTest(t)
	_, err := etcdclient.New(context.Background(), proc, telemetry.NewNop(), log.NewNopLogger(), etcdclient.NewConfig())
	require.EqualError(t, err, "etcd endpoint is not set")
}

func TestKVLogWrapper(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := etcdhelper.ClientForTest(t, "")
	logger := log.NewDebugLogger()
	kv := etcdclient.KVLogWrapper(client.KV, logger)

	_, err := kv.Put(ctx, "foo", "bar")
	require.NoError(t, err)
	_, err = kv.Get(ctx, "foo")
	require.NoError(t, err)

	logger.AssertJSONMessages(t, `
{"level":"debug","message":"ETCD_REQUEST[0001] ➡️  PUT \"foo\""}
{"level":"debug","message":"ETCD_REQUEST[0001] ✔️  PUT \"foo\""}
{"level":"debug","message":"ETCD_REQUEST[0002] ➡️  GET \"foo\""}
{"level":"debug","message":"ETCD_REQUEST[0002] ✔️  GET \"foo\""}
`)
}
