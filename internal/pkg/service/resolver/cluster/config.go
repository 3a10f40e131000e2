package cluster

import (
	"time"
)

type FanOut string

type PeerOrder string

const (
	// FanOutSequential queries peers one by one, the next peer is queried only if the previous has not the artifact.
	FanOutSequential FanOut = "sequential"
	// FanOutParallel queries all peers at once, the first found result wins.
	FanOutParallel FanOut = "parallel"

	// PeerOrderSorted queries peers in order of the node ID.
	PeerOrderSorted PeerOrder = "sorted"
	// PeerOrderOwnerFirst queries the consistent hash owner of the artifact first.
	PeerOrderOwnerFirst PeerOrder = "owner-first"
)

type Config struct {
	FetchTimeout time.Duration `configKey:"fetchTimeout" configUsage:"Timeout of the artifact fetch from one peer." validate:"required,minDuration=10ms,maxDuration=5m"`
	FanOut       FanOut        `configKey:"fanOut" configUsage:"Peers query mode: sequential or parallel." validate:"required,oneof=sequential parallel"`
	PeerOrder    PeerOrder     `configKey:"peerOrder" configUsage:"Peers order: sorted or owner-first." validate:"required,oneof=sorted owner-first"`
}

func NewConfig() Config {
	return Config{
		FetchTimeout: 5 * time.Second,
		FanOut:       FanOutSequential,
		PeerOrder:    PeerOrderSorted,
	}
}
