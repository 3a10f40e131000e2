// Package transport provides transport layer for communication between resolver nodes.
//
// Connections are made by TCP or by KCP Reliable UDP protocol,
// each connection is multiplexed by yamux to streams.
// A stream implements the net.Conn interface, so it can be used by the gRPC.
package transport

import (
	"context"
	"net"

	"github.com/hashicorp/yamux"
	"github.com/xtaci/kcp-go/v5"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/network"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const (
	kcpDataShards    = 10
	kcpParityShards  = 3
	streamWindowSize = 256 * 1024
)

// Protocol creates raw connections, they are multiplexed later.
type Protocol interface {
	Type() network.TransportProtocol
	Listen(addr string) (net.Listener, error)
	Dial(ctx context.Context, addr string) (net.Conn, error)
}

type tcpProtocol struct{}

type kcpProtocol struct{}

func NewProtocol(cfg network.Config) (Protocol, error) {
	switch cfg.Transport {
	case network.TransportProtocolTCP:
		return tcpProtocol{}, nil
	case network.TransportProtocolKCP:
		return kcpProtocol{}, nil
	default:
		return nil, errors.Errorf(`unexpected transport protocol "%s"`, cfg.Transport)
	}
}

func (tcpProtocol) Type() network.TransportProtocol {
	return network.TransportProtocolTCP
}

func (tcpProtocol) Listen(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

func (tcpProtocol) Dial(ctx context.Context, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (kcpProtocol) Type() network.TransportProtocol {
	return network.TransportProtocolKCP
}

func (kcpProtocol) Listen(addr string) (net.Listener, error) {
	listener, err := kcp.ListenWithOptions(addr, nil, kcpDataShards, kcpParityShards)
	if err != nil {
		return nil, err
	}
	return &kcpListener{Listener: listener}, nil
}

func (kcpProtocol) Dial(_ context.Context, addr string) (net.Conn, error) {
	conn, err := kcp.DialWithOptions(addr, nil, kcpDataShards, kcpParityShards)
	if err != nil {
		return nil, err
	}
	configureKCPSession(conn)
	return conn, nil
}

// kcpListener configures each accepted session the same way as the dialed one.
type kcpListener struct {
	*kcp.Listener
}

func (l *kcpListener) Accept() (net.Conn, error) {
	conn, err := l.AcceptKCP()
	if err != nil {
		return nil, err
	}
	configureKCPSession(conn)
	return conn, nil
}

func configureKCPSession(conn *kcp.UDPSession) {
	conn.SetStreamMode(true)
	conn.SetWriteDelay(false)
	conn.SetNoDelay(1, 10, 2, 1)
}

func multiplexerConfig(logger log.Logger, cfg network.Config) *yamux.Config {
	return &yamux.Config{
		AcceptBacklog:          cfg.MaxWaitingStreams,
		EnableKeepAlive:        true,
		KeepAliveInterval:      cfg.KeepAliveInterval,
		ConnectionWriteTimeout: cfg.StreamWriteTimeout,
		MaxStreamWindowSize:    streamWindowSize,
		StreamOpenTimeout:      cfg.StreamOpenTimeout,
		StreamCloseTimeout:     cfg.StreamCloseTimeout,
		Logger:                 log.NewStdErrorLogger(logger.WithComponent("mux")),
	}
}
