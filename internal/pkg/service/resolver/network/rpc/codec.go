package rpc

import (
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc/encoding"
)

const codecName = "json"

// jsonCodec encodes messages by jsoniter, so no generated protobuf code is needed.
type jsonCodec struct {
	api jsoniter.API
}

func init() {
	encoding.RegisterCodec(jsonCodec{api: jsoniter.ConfigCompatibleWithStandardLibrary})
}

func (c jsonCodec) Marshal(v any) ([]byte, error) {
	return c.api.Marshal(v)
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	return c.api.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}
