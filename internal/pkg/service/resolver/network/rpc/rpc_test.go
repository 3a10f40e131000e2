package rpc_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/keboola/cluster-resolver/internal/pkg/service/common/dependencies"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/cache"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/cluster"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/fetcher"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/localstore"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network/rpc"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

func TestExecutor_Fetch(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srv, srvDeps := startServer(t)
	clientDeps := dependencies.NewMocked(t)
	executor, err := rpc.NewExecutor(clientDeps, testConfig())
	require.NoError(t, err)

	peer := cluster.NewPeer("server-node", srv.Addr().String(), false)

	// Found
	result, err := executor.Submit(ctx, peer, "a.b.C").Wait(ctx)
	require.NoError(t, err)
	assert.True(t, result.IsFound())
	assert.Equal(t, []byte("content"), result.Data())

	// Found, empty content is not absent
	result, err = executor.Submit(ctx, peer, "a.b.Empty").Wait(ctx)
	require.NoError(t, err)
	assert.True(t, result.IsFound())
	assert.Empty(t, result.Data())

	// Not found
	result, err = executor.Submit(ctx, peer, "a.b.Missing").Wait(ctx)
	require.NoError(t, err)
	assert.False(t, result.IsFound())

	// Peer without address
	_, err = executor.Submit(ctx, cluster.NewPeer("foo", "", false), "a.b.C").Wait(ctx)
	if assert.Error(t, err) {
		assert.Equal(t, `peer "foo" has no address`, err.Error())
	}

	// Close
	require.NoError(t, executor.Close())
	require.NoError(t, executor.Close())
	_, err = executor.Submit(ctx, peer, "a.b.C").Wait(ctx)
	assert.ErrorIs(t, err, rpc.ErrExecutorClosed)

	srvDeps.Process().Shutdown(ctx, errors.New("bye bye"))
	srvDeps.Process().WaitForShutdown()

	srvDeps.DebugLogger().AssertJSONMessages(t, `
{"level":"info","message":"node \"server-node\" listening on \"tcp/127.0.0.1:%d\"","component":"transport.server"}
{"level":"info","message":"accepted connection from \"127.0.0.1:%d\"","component":"transport.server"}
{"level":"debug","message":"artifact \"a.b.C\" found locally","component":"resolver.fetcher","artifact":"a.b.C"}
{"level":"debug","message":"artifact \"a.b.Missing\" not found locally","component":"resolver.fetcher","artifact":"a.b.Missing"}
{"level":"info","message":"exiting (bye bye)"}
{"level":"info","message":"closing fetch server","component":"rpc.server"}
{"level":"info","message":"closed fetch server","component":"rpc.server"}
{"level":"info","message":"exited"}
`)
}

func TestExecutor_LargeArtifact(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Over the default gRPC limit 4 MiB
	data := bytes.Repeat([]byte("0123456789abcdef"), int(4*datasize.MB.Bytes())/16+1)
	srv, _ := startServerWithConfig(t, testConfig(), map[artifact.Name][]byte{"a.b.Large": data})

	d := dependencies.NewMocked(t)
	executor, err := rpc.NewExecutor(d, testConfig())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, executor.Close())
	}()

	result, err := executor.Submit(ctx, cluster.NewPeer("server-node", srv.Addr().String(), false), "a.b.Large").Wait(ctx)
	require.NoError(t, err)
	assert.True(t, result.IsFound())
	assert.Equal(t, len(data), len(result.Data()))
	assert.True(t, bytes.Equal(data, result.Data()))
}

func TestExecutor_ArtifactOverMessageLimit(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := testConfig()
	cfg.MaxMessageSize = datasize.MB
	data := make([]byte, int(datasize.MB.Bytes()))
	srv, srvDeps := startServerWithConfig(t, cfg, map[artifact.Name][]byte{"a.b.Large": data})

	d := dependencies.NewMocked(t)
	executor, err := rpc.NewExecutor(d, cfg)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, executor.Close())
	}()

	peer := cluster.NewPeer("server-node", srv.Addr().String(), false)
	_, err = executor.Submit(ctx, peer, "a.b.Large").Wait(ctx)
	require.Error(t, err)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
	assert.Contains(t, err.Error(), `artifact "a.b.Large" is too large`)

	// Small artifacts still work
	result, err := executor.Submit(ctx, peer, "a.b.C").Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), result.Data())

	srvDeps.DebugLogger().AssertJSONMessages(t, `
{"level":"error","message":"artifact \"a.b.Large\" cannot be sent, encoded size %s exceeds the maximum message size 1024.0 KB, see \"network.maxMessageSize\"","component":"rpc.server"}
`)
}

func TestExecutor_RetainPeers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srv, _ := startServer(t)
	d := dependencies.NewMocked(t)
	executor, err := rpc.NewExecutor(d, testConfig())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, executor.Close())
	}()

	peer := cluster.NewPeer("server-node", srv.Addr().String(), false)
	_, err = executor.Submit(ctx, peer, "a.b.C").Wait(ctx)
	require.NoError(t, err)

	// The peer is still a member, the connection is kept
	executor.RetainPeers(ctx, []cluster.Peer{peer})

	// The peer left, the connection is closed
	executor.RetainPeers(ctx, nil)

	// The peer is back, a new connection is created
	result, err := executor.Submit(ctx, peer, "a.b.C").Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), result.Data())

	d.DebugLogger().AssertJSONMessages(t, `
{"level":"info","message":"created connection to the peer \"server-node\" at \"127.0.0.1:%d\"","component":"rpc.executor"}
{"level":"info","message":"closed connection to \"127.0.0.1:%d\", the peer left","component":"rpc.executor"}
{"level":"info","message":"created connection to the peer \"server-node\" at \"127.0.0.1:%d\"","component":"rpc.executor"}
`)
}

func TestExecutor_UnreachablePeer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	d := dependencies.NewMocked(t)
	executor, err := rpc.NewExecutor(d, testConfig())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, executor.Close())
	}()

	// Nothing listens on the port
	_, err = executor.Submit(ctx, cluster.NewPeer("foo", "127.0.0.1:1", false), "a.b.C").Wait(ctx)
	assert.Error(t, err)
}

func TestClusterResolver_OverNetwork(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srv, _ := startServer(t)
	d := dependencies.NewMocked(t)
	executor, err := rpc.NewExecutor(d, testConfig())
	require.NoError(t, err)

	membership := cluster.StaticMembership{
		cluster.NewPeer("local-node", "", true),
		cluster.NewPeer("server-node", srv.Addr().String(), false),
	}
	c := cache.NewMemoryCache()
	resolver := cluster.NewResolver(d, cluster.NewConfig(), c, membership, executor)

	result, err := resolver.Resolve(ctx, "a.b.C")
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), result.Data())

	// The result is cached
	cached, err := c.Get(ctx, "a.b.C")
	require.NoError(t, err)
	assert.True(t, cached.IsFound())

	result, err = resolver.Resolve(ctx, "a.b.Missing")
	require.NoError(t, err)
	assert.False(t, result.IsFound())

	require.NoError(t, resolver.Close(ctx))
}

func startServer(t *testing.T) (*rpc.Server, dependencies.Mocked) {
	t.Helper()
	return startServerWithConfig(t, testConfig(), nil)
}

func startServerWithConfig(t *testing.T, cfg network.Config, extra map[artifact.Name][]byte) (*rpc.Server, dependencies.Mocked) {
	t.Helper()

	d := dependencies.NewMocked(t)
	store := localstore.New(afero.NewMemMapFs(), "")
	require.NoError(t, store.Write("a.b.C", []byte("content")))
	require.NoError(t, store.Write("a.b.Empty", []byte{}))
	for name, data := range extra {
		require.NoError(t, store.Write(name, data))
	}

	srv, err := rpc.StartServer(d, cfg, "server-node", fetcher.New(d, store))
	require.NoError(t, err)
	return srv, d
}

func testConfig() network.Config {
	cfg := network.NewConfig()
	cfg.Listen = "localhost:0" // use a random port
	cfg.StreamOpenTimeout = time.Second
	return cfg
}
