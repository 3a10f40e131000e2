package etcdop

import (
	"context"

	jsoniter "github.com/json-iterator/go"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// Serialization encapsulates serialization and deserialization process of a value.
type Serialization struct {
	// encode a typed value to the etcd KV.
	encode encodeFn
	// decode a typed value from the etcd KV.
	decode decodeFn
	// validate a value before encode and after decode operation.
	validate validateFn
}

type encodeFn func(ctx context.Context, value any) (string, error)

type decodeFn func(ctx context.Context, data []byte, target any) error

type validateFn func(ctx context.Context, value any) error

func NewSerialization(encode encodeFn, decode decodeFn, validate validateFn) Serialization {
	if validate == nil {
		validate = NoValidation
	}
	return Serialization{encode: encode, decode: decode, validate: validate}
}

// NewJSONSerialization encodes values to JSON.
func NewJSONSerialization(validate validateFn) Serialization {
	json := jsoniter.ConfigCompatibleWithStandardLibrary
	return NewSerialization(
		func(_ context.Context, value any) (string, error) {
			return json.MarshalToString(value)
		},
		func(_ context.Context, data []byte, target any) error {
			return json.Unmarshal(data, target)
		},
		validate,
	)
}

func NoValidation(_ context.Context, _ any) error {
	return nil
}

func (v Serialization) validateAndEncode(ctx context.Context, key string, value any) (string, error) {
	if err := v.validate(ctx, value); err != nil {
		return "", errors.PrefixErrorf(err, `invalid value for "%s"`, key)
	}
	out, err := v.encode(ctx, value)
	if err != nil {
		return "", errors.PrefixErrorf(err, `invalid value for "%s"`, key)
	}
	return out, nil
}

func (v Serialization) decodeAndValidate(ctx context.Context, kv *KeyValue, target any) error {
	if err := v.decode(ctx, kv.Value, target); err != nil {
		return errors.PrefixErrorf(err, `invalid value for "%s"`, kv.Key)
	}
	if err := v.validate(ctx, target); err != nil {
		return errors.PrefixErrorf(err, `invalid value for "%s"`, kv.Key)
	}
	return nil
}
