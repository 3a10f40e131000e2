package distribution

// Member is a registered node of the cluster group.
type Member struct {
	NodeID string `json:"nodeId" validate:"required"`
	// Address for node-to-node communication, it may be empty if the node doesn't accept connections.
	Address string `json:"address,omitempty"`
}
