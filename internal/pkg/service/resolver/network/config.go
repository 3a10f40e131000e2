// Package network contains configuration of the node-to-node communication.
package network

import (
	"time"

	"github.com/c2h5oh/datasize"
)

const (
	TransportProtocolTCP = TransportProtocol("tcp")
	TransportProtocolKCP = TransportProtocol("kcp")
)

type TransportProtocol string

type Config struct {
	Transport          TransportProtocol `configKey:"transport" configUsage:"Transport protocol: tcp or kcp." validate:"required,oneof=tcp kcp"`
	Listen             string            `configKey:"listen" configUsage:"Listen address of the node-to-node communication." validate:"required,hostname_port"`
	KeepAliveInterval  time.Duration     `configKey:"keepAliveInterval" configUsage:"Keep alive interval of a connection." validate:"required,minDuration=1s,maxDuration=1m"`
	StreamOpenTimeout  time.Duration     `configKey:"streamOpenTimeout" configUsage:"Timeout of a stream opening." validate:"required,minDuration=1s,maxDuration=1m"`
	StreamCloseTimeout time.Duration     `configKey:"streamCloseTimeout" configUsage:"Timeout of a stream closing." validate:"required,minDuration=1s,maxDuration=1m"`
	StreamWriteTimeout time.Duration     `configKey:"streamWriteTimeout" configUsage:"Timeout of a write to a stream." validate:"required,minDuration=1s,maxDuration=1m"`
	MaxWaitingStreams  int               `configKey:"maxWaitingStreams" configUsage:"Maximum number of streams waiting for accept." validate:"required,min=1,max=10000"`
	ShutdownTimeout    time.Duration     `configKey:"shutdownTimeout" configUsage:"Timeout of the graceful shutdown of the server." validate:"required,minDuration=1s,maxDuration=5m"`
	// MaxMessageSize limits the size of a fetched artifact, the data is base64 encoded in the message.
	MaxMessageSize datasize.ByteSize `configKey:"maxMessageSize" configUsage:"Maximum size of a node-to-node message, for example 64MB." validate:"required"`
}

func NewConfig() Config {
	return Config{
		Transport:          TransportProtocolTCP,
		Listen:             "0.0.0.0:9100",
		KeepAliveInterval:  5 * time.Second,
		StreamOpenTimeout:  5 * time.Second,
		StreamCloseTimeout: 5 * time.Second,
		StreamWriteTimeout: 5 * time.Second,
		MaxWaitingStreams:  256,
		ShutdownTimeout:    10 * time.Second,
		MaxMessageSize:     64 * datasize.MB,
	}
}
