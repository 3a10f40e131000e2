package etcdop

import (
	"context"
	"strings"

	etcd "go.etcd.io/etcd/client/v3"
)

// Prefix represents an etcd prefix, it always ends with a slash.
type Prefix string

// PrefixT extends Prefix with generic functionality, contains type of the serialized values.
type PrefixT[T any] struct {
	prefix        Prefix
	serialization Serialization
}

func NewPrefix(v string) Prefix {
	return Prefix(strings.TrimRight(v, "/") + "/")
}

func NewTypedPrefix[T any](v string, s Serialization) PrefixT[T] {
	return PrefixT[T]{prefix: NewPrefix(v), serialization: s}
}

func (v Prefix) Prefix() string {
	return string(v)
}

func (v Prefix) Add(str string) Prefix {
	return NewPrefix(v.Prefix() + str)
}

func (v Prefix) Key(key string) Key {
	return NewKey(v.Prefix() + key)
}

func (v Prefix) GetAll(client etcd.KV, opts ...etcd.OpOption) Op[[]*KeyValue] {
	opts = append([]etcd.OpOption{etcd.WithPrefix(), etcd.WithSort(etcd.SortByKey, etcd.SortAscend)}, opts...)
	return newOp(
		"get all",
		client,
		func(_ context.Context) (etcd.Op, error) {
			return etcd.OpGet(v.Prefix(), opts...), nil
		},
		func(_ context.Context, r etcd.OpResponse) ([]*KeyValue, error) {
			return r.Get().Kvs, nil
		},
	)
}

// DeleteAll returns count of the deleted keys.
func (v Prefix) DeleteAll(client etcd.KV, opts ...etcd.OpOption) Op[int64] {
	opts = append([]etcd.OpOption{etcd.WithPrefix()}, opts...)
	return newOp(
		"delete all",
		client,
		func(_ context.Context) (etcd.Op, error) {
			return etcd.OpDelete(v.Prefix(), opts...), nil
		},
		func(_ context.Context, r etcd.OpResponse) (int64, error) {
			return r.Del().Deleted, nil
		},
	)
}

func (v PrefixT[T]) Prefix() string {
	return v.prefix.Prefix()
}

func (v PrefixT[T]) Key(key string) KeyT[T] {
	return KeyT[T]{key: v.prefix.Key(key), serialization: v.serialization}
}

// GetAll returns all decoded values sorted by key.
func (v PrefixT[T]) GetAll(client etcd.KV, opts ...etcd.OpOption) Op[[]KeyValueT[T]] {
	raw := v.prefix.GetAll(client, opts...)
	return newOp(
		"get all",
		client,
		raw.factory,
		func(ctx context.Context, r etcd.OpResponse) ([]KeyValueT[T], error) {
			kvs, _ := raw.processor(ctx, r)
			out := make([]KeyValueT[T], 0, len(kvs))
			for _, kv := range kvs {
				target := new(T)
				if err := v.serialization.decodeAndValidate(ctx, kv, target); err != nil {
					return nil, err
				}
				out = append(out, KeyValueT[T]{Value: *target, KV: kv})
			}
			return out, nil
		},
	)
}

func (v PrefixT[T]) DeleteAll(client etcd.KV, opts ...etcd.OpOption) Op[int64] {
	return v.prefix.DeleteAll(client, opts...)
}
