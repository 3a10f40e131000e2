// Package rpc provides the remote fetch of an artifact from a peer.
//
// The gRPC service "resolver.Fetcher" runs on top of the multiplexed transport, see the transport package.
// Messages are encoded as JSON.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	serviceName = "resolver.Fetcher"
	fetchMethod = "/" + serviceName + "/Fetch"
)

// FetchRequest asks the peer for the artifact.
type FetchRequest struct {
	Name string `json:"name"`
}

// FetchResponse contains the result of the local lookup on the peer.
type FetchResponse struct {
	Found bool   `json:"found"`
	Data  []byte `json:"data,omitempty"`
}

type fetcherServer interface {
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*fetcherServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Fetch",
			Handler:    fetchHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "resolver/fetcher",
}

func fetchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FetchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(fetcherServer).Fetch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: fetchMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(fetcherServer).Fetch(ctx, req.(*FetchRequest))
	}
	return interceptor(ctx, in, info, handler)
}
