package etcdhelper

import (
	"context"
	"fmt"
	"os"
	"time"

	etcd "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/namespace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"

	"github.com/keboola/cluster-resolver/internal/pkg/idgenerator"
)

type testOrBenchmark interface {
	Cleanup(f func())
	Skipf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// ClientForTest creates an etcd client for the test, all keys are prefixed by a unique namespace.
// The namespace is deleted after the test. An empty namespace is generated.
// The test is skipped if the UNIT_ETCD_ENDPOINT environment variable is not set.
func ClientForTest(t testOrBenchmark, ns string) *etcd.Client {
	ctx := context.Background()

	endpoint := os.Getenv("UNIT_ETCD_ENDPOINT")
	if endpoint == "" {
		t.Skipf("etcd test is skipped, UNIT_ETCD_ENDPOINT is not set")
	}

	etcdClient, err := etcd.New(etcd.Config{
		Context:              ctx,
		Endpoints:            []string{endpoint},
		DialTimeout:          2 * time.Second,
		DialKeepAliveTimeout: 2 * time.Second,
		DialKeepAliveTime:    10 * time.Second,
		Username:             os.Getenv("UNIT_ETCD_USERNAME"), // optional
		Password:             os.Getenv("UNIT_ETCD_PASSWORD"), // optional
		Logger:               zap.NewNop(),
		DialOptions: []grpc.DialOption{
			grpc.WithBlock(), // wait for the connection
			grpc.WithConnectParams(grpc.ConnectParams{
				Backoff: backoff.Config{
					BaseDelay:  100 * time.Millisecond,
					Multiplier: 1.5,
					Jitter:     0.2,
					MaxDelay:   15 * time.Second,
				},
			}),
		},
	})
	if err != nil {
		t.Fatalf("cannot create etcd client: %s", err)
	}

	if ns == "" {
		ns = idgenerator.EtcdNamespaceForTest()
	}
	prefix := fmt.Sprintf("unit-%s/", ns)

	// Not namespaced KV for the cleanup
	originalKV := etcdClient.KV
	etcdClient.KV = namespace.NewKV(etcdClient.KV, prefix)
	etcdClient.Lease = namespace.NewLease(etcdClient.Lease, prefix)
	etcdClient.Watcher = namespace.NewWatcher(etcdClient.Watcher, prefix)

	t.Cleanup(func() {
		if _, err := originalKV.Delete(ctx, prefix, etcd.WithPrefix()); err != nil {
			t.Fatalf(`cannot clear etcd namespace "%s" after test: %s`, prefix, err)
		}
		_ = etcdClient.Close()
	})

	return etcdClient
}
