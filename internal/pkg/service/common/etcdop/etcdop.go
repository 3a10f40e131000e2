// Package etcdop provides a small framework on top of etcd low-level operations.
//
// See Key and Prefix types. Examples can be found in the tests.
//
// Goals:
// - Reduce the risk of an error when defining an operation.
// - Distinguish between operations over one key (Key type) and several keys (Prefix type).
// - Encode and decode typed values in one place, see Serialization.
package etcdop

import (
	"context"

	"go.etcd.io/etcd/api/v3/mvccpb"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type KeyValue = mvccpb.KeyValue

// KeyValueT is a KV pair with the decoded value.
type KeyValueT[T any] struct {
	Value T
	KV    *KeyValue
}

type opFactory func(ctx context.Context) (etcd.Op, error)

type processor[R any] func(ctx context.Context, r etcd.OpResponse) (R, error)

// Op is a lazy operation, it is executed by the Do method.
// The result R is mapped from the raw etcd response by the processor.
type Op[R any] struct {
	name      string
	client    etcd.KV
	factory   opFactory
	processor processor[R]
}

// NoResultOp is an operation, the result of which is an error or nil.
type NoResultOp struct {
	Op[struct{}]
}

func newOp[R any](name string, client etcd.KV, factory opFactory, processor processor[R]) Op[R] {
	return Op[R]{name: name, client: client, factory: factory, processor: processor}
}

func newNoResultOp(name string, client etcd.KV, factory opFactory) NoResultOp {
	return NoResultOp{Op: newOp(name, client, factory, func(_ context.Context, _ etcd.OpResponse) (struct{}, error) {
		return struct{}{}, nil
	})}
}

func (v Op[R]) Do(ctx context.Context) (result R, err error) {
	etcdOp, err := v.factory(ctx)
	if err != nil {
		return result, errors.PrefixErrorf(err, `etcd operation "%s" failed`, v.name)
	}

	r, err := v.client.Do(ctx, etcdOp)
	if err != nil {
		return result, errors.PrefixErrorf(err, `etcd operation "%s" failed`, v.name)
	}

	result, err = v.processor(ctx, r)
	if err != nil {
		return result, errors.PrefixErrorf(err, `etcd operation "%s" failed`, v.name)
	}
	return result, nil
}

func (v NoResultOp) Do(ctx context.Context) error {
	_, err := v.Op.Do(ctx)
	return err
}
