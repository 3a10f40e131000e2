package cluster

import (
	"sort"

	"github.com/keboola/cluster-resolver/internal/pkg/service/common/distribution"
)

// Peer is a member of the cluster.
type Peer struct {
	NodeID  string
	Address string
	local   bool
}

// Membership provides the current list of the cluster members, including the local node.
type Membership interface {
	Members() []Peer
}

// OwnerLocator returns the node which owns the key, see distribution.Assigner.
type OwnerLocator interface {
	NodeFor(key string) (string, error)
}

func NewPeer(nodeID, address string, local bool) Peer {
	return Peer{NodeID: nodeID, Address: address, local: local}
}

// IsLocal returns true for the node on which the resolver runs.
func (p Peer) IsLocal() bool {
	return p.local
}

func (p Peer) String() string {
	if p.Address == "" {
		return p.NodeID
	}
	return p.NodeID + "@" + p.Address
}

// StaticMembership is a fixed list of members.
type StaticMembership []Peer

func (v StaticMembership) Members() []Peer {
	return v
}

// DistributionMembership exposes members of the distribution group, sorted by the node ID.
type DistributionMembership struct {
	node *distribution.Node
}

func NewDistributionMembership(node *distribution.Node) *DistributionMembership {
	return &DistributionMembership{node: node}
}

func (v *DistributionMembership) Members() []Peer {
	localID := v.node.NodeID()
	members := v.node.Members()
	out := make([]Peer, 0, len(members))
	for _, m := range members {
		out = append(out, NewPeer(m.NodeID, m.Address, m.NodeID == localID))
	}
	return out
}

// NodeFor implements OwnerLocator.
func (v *DistributionMembership) NodeFor(key string) (string, error) {
	return v.node.NodeFor(key)
}

// remotePeers returns members without the local node, the membership order is kept.
func remotePeers(members []Peer) []Peer {
	out := make([]Peer, 0, len(members))
	for _, p := range members {
		if !p.IsLocal() {
			out = append(out, p)
		}
	}
	return out
}

// ownerFirst moves the owner of the key to the first position, the order of the rest is kept.
func ownerFirst(peers []Peer, owner string) []Peer {
	out := make([]Peer, len(peers))
	copy(out, peers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NodeID == owner && out[j].NodeID != owner
	})
	return out
}
