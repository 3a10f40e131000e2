package etcdop

import (
	"context"

	etcd "go.etcd.io/etcd/client/v3"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// Key represents an etcd key - one key, not a prefix.
type Key string

// KeyT extends Key with generic functionality, contains type of the serialized value.
type KeyT[T any] struct {
	key           Key
	serialization Serialization
}

func NewKey(v string) Key {
	return Key(v)
}

func NewTypedKey[T any](v string, s Serialization) KeyT[T] {
	return KeyT[T]{key: NewKey(v), serialization: s}
}

func (v Key) Key() string {
	return string(v)
}

func (v Key) Get(client etcd.KV, opts ...etcd.OpOption) Op[*KeyValue] {
	return newOp(
		"get one",
		client,
		func(_ context.Context) (etcd.Op, error) {
			return etcd.OpGet(v.Key(), opts...), nil
		},
		func(_ context.Context, r etcd.OpResponse) (*KeyValue, error) {
			switch count := r.Get().Count; count {
			case 0:
				return nil, nil
			case 1:
				return r.Get().Kvs[0], nil
			default:
				return nil, errors.Errorf(`at most one result expected, found %d results`, count)
			}
		},
	)
}

func (v Key) Put(client etcd.KV, val string, opts ...etcd.OpOption) NoResultOp {
	return newNoResultOp(
		"put",
		client,
		func(_ context.Context) (etcd.Op, error) {
			return etcd.OpPut(v.Key(), val, opts...), nil
		},
	)
}

// PutIfNotExists writes the value only if the key does not exist, the result is true on success.
func (v Key) PutIfNotExists(client etcd.KV, val string, opts ...etcd.OpOption) Op[bool] {
	return newOp(
		"put if not exists",
		client,
		func(_ context.Context) (etcd.Op, error) {
			return v.putIfNotExistsOp(val, opts...), nil
		},
		txnSucceeded,
	)
}

// Delete removes the key, the result is true if the key existed.
func (v Key) Delete(client etcd.KV, opts ...etcd.OpOption) Op[bool] {
	return newOp(
		"delete",
		client,
		func(_ context.Context) (etcd.Op, error) {
			return etcd.OpDelete(v.Key(), opts...), nil
		},
		func(_ context.Context, r etcd.OpResponse) (bool, error) {
			return r.Del().Deleted > 0, nil
		},
	)
}

func (v Key) putIfNotExistsOp(val string, opts ...etcd.OpOption) etcd.Op {
	return etcd.OpTxn(
		[]etcd.Cmp{etcd.Compare(etcd.Version(v.Key()), "=", 0)},
		[]etcd.Op{etcd.OpPut(v.Key(), val, opts...)},
		nil,
	)
}

func (v KeyT[T]) Key() string {
	return v.key.Key()
}

// Get returns nil if the key does not exist.
func (v KeyT[T]) Get(client etcd.KV, opts ...etcd.OpOption) Op[*KeyValueT[T]] {
	raw := v.key.Get(client, opts...)
	return newOp(
		"get one",
		client,
		raw.factory,
		func(ctx context.Context, r etcd.OpResponse) (*KeyValueT[T], error) {
			kv, err := raw.processor(ctx, r)
			if kv == nil || err != nil {
				return nil, err
			}
			target := new(T)
			if err := v.serialization.decodeAndValidate(ctx, kv, target); err != nil {
				return nil, err
			}
			return &KeyValueT[T]{Value: *target, KV: kv}, nil
		},
	)
}

func (v KeyT[T]) Put(client etcd.KV, value T, opts ...etcd.OpOption) NoResultOp {
	return newNoResultOp(
		"put",
		client,
		func(ctx context.Context) (etcd.Op, error) {
			encoded, err := v.serialization.validateAndEncode(ctx, v.Key(), &value)
			if err != nil {
				return etcd.Op{}, err
			}
			return etcd.OpPut(v.Key(), encoded, opts...), nil
		},
	)
}

// PutIfNotExists writes the value only if the key does not exist, the result is true on success.
func (v KeyT[T]) PutIfNotExists(client etcd.KV, value T, opts ...etcd.OpOption) Op[bool] {
	return newOp(
		"put if not exists",
		client,
		func(ctx context.Context) (etcd.Op, error) {
			encoded, err := v.serialization.validateAndEncode(ctx, v.Key(), &value)
			if err != nil {
				return etcd.Op{}, err
			}
			return v.key.putIfNotExistsOp(encoded, opts...), nil
		},
		txnSucceeded,
	)
}

func (v KeyT[T]) Delete(client etcd.KV, opts ...etcd.OpOption) Op[bool] {
	return v.key.Delete(client, opts...)
}

func txnSucceeded(_ context.Context, r etcd.OpResponse) (bool, error) {
	return r.Txn().Succeeded, nil
}
