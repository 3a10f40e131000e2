package etcdclient

import (
	"context"
	"fmt"
	"sync/atomic"

	etcd "go.etcd.io/etcd/client/v3"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
)

type kvLogger struct {
	etcd.KV
	logger  log.Logger
	counter *atomic.Uint64
}

// KVLogWrapper logs each KV operation as a debug message.
func KVLogWrapper(kv etcd.KV, logger log.Logger) etcd.KV {
	return &kvLogger{KV: kv, logger: logger, counter: &atomic.Uint64{}}
}

func (v *kvLogger) Get(ctx context.Context, key string, opts ...etcd.OpOption) (*etcd.GetResponse, error) {
	return logOp(ctx, v, "GET", key, func() (*etcd.GetResponse, error) { return v.KV.Get(ctx, key, opts...) })
}

func (v *kvLogger) Put(ctx context.Context, key, val string, opts ...etcd.OpOption) (*etcd.PutResponse, error) {
	return logOp(ctx, v, "PUT", key, func() (*etcd.PutResponse, error) { return v.KV.Put(ctx, key, val, opts...) })
}

func (v *kvLogger) Delete(ctx context.Context, key string, opts ...etcd.OpOption) (*etcd.DeleteResponse, error) {
	return logOp(ctx, v, "DELETE", key, func() (*etcd.DeleteResponse, error) { return v.KV.Delete(ctx, key, opts...) })
}

func (v *kvLogger) Do(ctx context.Context, op etcd.Op) (etcd.OpResponse, error) {
	return logOp(ctx, v, "DO", string(op.KeyBytes()), func() (etcd.OpResponse, error) { return v.KV.Do(ctx, op) })
}

func logOp[R any](ctx context.Context, v *kvLogger, name, key string, fn func() (R, error)) (R, error) {
	id := v.counter.Add(1)
	v.logger.Debug(ctx, fmt.Sprintf(`ETCD_REQUEST[%04d] ➡️  %s "%s"`, id, name, key))
	r, err := fn()
	if err != nil {
		v.logger.Debug(ctx, fmt.Sprintf(`ETCD_REQUEST[%04d] ✗  %s "%s" | error: %s`, id, name, key, err))
	} else {
		v.logger.Debug(ctx, fmt.Sprintf(`ETCD_REQUEST[%04d] ✔️  %s "%s"`, id, name, key))
	}
	return r, err
}
