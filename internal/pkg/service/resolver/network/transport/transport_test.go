package transport_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/cluster-resolver/internal/pkg/service/common/dependencies"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network/transport"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

func TestTransport_TCP(t *testing.T) {
	t.Parallel()
	testTransport(t, network.TransportProtocolTCP)
}

func TestTransport_KCP(t *testing.T) {
	t.Parallel()
	testTransport(t, network.TransportProtocolKCP)
}

func TestNewProtocol_Unexpected(t *testing.T) {
	t.Parallel()

	cfg := network.NewConfig()
	cfg.Transport = "foo"
	_, err := transport.NewProtocol(cfg)
	if assert.Error(t, err) {
		assert.Equal(t, `unexpected transport protocol "foo"`, err.Error())
	}
}

func TestClient_Closed(t *testing.T) {
	t.Parallel()

	d := dependencies.NewMocked(t)
	client, err := transport.NewClient(d, testConfig(network.TransportProtocolTCP))
	require.NoError(t, err)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.OpenStream(context.Background(), "127.0.0.1:1")
	assert.ErrorIs(t, err, transport.ErrClientClosed)
}

func testTransport(t *testing.T, protocol network.TransportProtocol) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srvDeps := dependencies.NewMocked(t)
	clientDeps := dependencies.NewMocked(t)
	cfg := testConfig(protocol)

	// Start server, each stream gets the uppercased line back
	srv, err := transport.Listen(srvDeps, cfg, "server-node")
	require.NoError(t, err)
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			stream, err := srv.Accept()
			if err != nil {
				assert.ErrorIs(t, err, net.ErrClosed)
				return
			}
			go func() {
				defer stream.Close()
				line, err := bufio.NewReader(stream).ReadString('\n')
				if assert.NoError(t, err) {
					_, err = stream.Write([]byte(strings.ToUpper(line)))
					assert.NoError(t, err)
				}
			}()
		}
	}()
	addr := srv.Addr().String()

	// Setup client
	client, err := transport.NewClient(clientDeps, cfg)
	require.NoError(t, err)

	// Multiple streams share one connection
	for _, msg := range []string{"foo", "bar", "baz"} {
		stream, err := client.OpenStream(ctx, addr)
		require.NoError(t, err)
		_, err = stream.Write([]byte(msg + "\n"))
		require.NoError(t, err)
		line, err := bufio.NewReader(stream).ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, strings.ToUpper(msg)+"\n", line)
		require.NoError(t, stream.Close())
	}
	assert.Equal(t, 1, client.ConnectionsCount())

	// Don't start shutdown, before the successful connection is logged
	assert.Eventually(t, func() bool {
		return srvDeps.DebugLogger().CompareJSONMessages(`{"message":"accepted connection from \"127.0.0.1:%d\""}`) == nil
	}, 5*time.Second, 10*time.Millisecond)

	// Close client
	require.NoError(t, client.Close())
	assert.Equal(t, 0, client.ConnectionsCount())

	// Shutdown server
	srvDeps.Process().Shutdown(context.Background(), errors.New("bye bye"))
	srvDeps.Process().WaitForShutdown()
	wg.Wait()

	clientDeps.DebugLogger().AssertJSONMessages(t, `
{"level":"info","message":"connection \"1\" to \"127.0.0.1:%d\" opened","component":"transport.client"}
{"level":"info","message":"closing 1 connections","component":"transport.client"}
{"level":"info","message":"closed connections","component":"transport.client"}
`)

	srvDeps.DebugLogger().AssertJSONMessages(t, `
{"level":"info","message":"node \"server-node\" listening on \"`+string(protocol)+`/127.0.0.1:%d\"","component":"transport.server"}
{"level":"info","message":"accepted connection from \"127.0.0.1:%d\"","component":"transport.server"}
{"level":"info","message":"exiting (bye bye)"}
{"level":"info","message":"closing server","component":"transport.server"}
{"level":"info","message":"closing %d sessions","component":"transport.server"}
{"level":"info","message":"closed server","component":"transport.server"}
{"level":"info","message":"exited"}
`)
}

func testConfig(protocol network.TransportProtocol) network.Config {
	cfg := network.NewConfig()
	cfg.Transport = protocol
	cfg.Listen = "localhost:0" // use a random port
	cfg.StreamWriteTimeout = 30 * time.Second
	cfg.KeepAliveInterval = 30 * time.Second // to not interfere with the test
	return cfg
}
