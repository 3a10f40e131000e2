package dependencies

import (
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/distribution"
)

// distributionScope implements DistributionScope interface.
type distributionScope struct {
	node *distribution.Node
}

type distributionScopeDeps interface {
	BaseScope
	EtcdClientScope
}

// NewDistributionScope registers the node to the cluster group and waits until the node sees itself.
func NewDistributionScope(nodeID string, cfg distribution.Config, d distributionScopeDeps, opts ...distribution.NodeOption) (DistributionScope, error) {
	node, err := distribution.NewNode(nodeID, cfg, d, opts...)
	if err != nil {
		return nil, err
	}
	return &distributionScope{node: node}, nil
}

func (v *distributionScope) DistributionNode() *distribution.Node {
	return v.node
}
