package distribution

import (
	"sort"
	"sync"

	"github.com/lafikl/consistent"
)

// Assigner locally assigns the owner for the key, see NodeFor and IsOwner methods. It is part of the Node.
//
// The hash ring/consistent hashing pattern is used to make the assignment,
// it is provided by the "consistent" package, see TestConsistentHashLib for more information.
type Assigner struct {
	nodeID  string
	mutex   *sync.RWMutex
	nodes   *consistent.Consistent
	members map[string]Member
}

func newAssigner(nodeID string) *Assigner {
	return &Assigner{
		nodeID:  nodeID,
		mutex:   &sync.RWMutex{},
		nodes:   consistent.New(),
		members: make(map[string]Member),
	}
}

// NodeID returns ID of the current node.
func (a *Assigner) NodeID() string {
	return a.nodeID
}

// Nodes method returns sorted IDs of all known nodes.
func (a *Assigner) Nodes() []string {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	out := a.nodes.Hosts()
	sort.Strings(out)
	return out
}

// Members method returns all known members sorted by the node ID.
func (a *Assigner) Members() []Member {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	out := make([]Member, 0, len(a.members))
	for _, m := range a.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NodeID < out[j].NodeID
	})
	return out
}

// Member returns the member by the node ID.
func (a *Assigner) Member(nodeID string) (Member, bool) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	m, ok := a.members[nodeID]
	return m, ok
}

// NodesCount method returns count of known nodes.
func (a *Assigner) NodesCount() int {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return len(a.members)
}

// NodeFor returns ID of the key's owner node.
// The consistent.ErrNoHosts may occur if there is no node in the list.
func (a *Assigner) NodeFor(key string) (string, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.nodes.Get(key)
}

// IsOwner method returns true, if the node is owner of the key.
// The consistent.ErrNoHosts may occur if there is no node in the list.
func (a *Assigner) IsOwner(key string) (bool, error) {
	node, err := a.NodeFor(key)
	if err != nil {
		return false, err
	}
	return node == a.nodeID, nil
}

// HasNode returns true if the nodeID is known.
func (a *Assigner) HasNode(nodeID string) bool {
	_, ok := a.Member(nodeID)
	return ok
}

// lock acquires write lock for resetNodes, addNode, removeNode operations,
// it provides the ability to make multiple changes atomically.
func (a *Assigner) lock() {
	a.mutex.Lock()
}

// unlock releases write lock for resetNodes, addNode, removeNode operations.
func (a *Assigner) unlock() {
	a.mutex.Unlock()
}

func (a *Assigner) resetNodes() {
	a.nodes = consistent.New()
	a.members = make(map[string]Member)
}

func (a *Assigner) addNode(m Member) {
	if _, found := a.members[m.NodeID]; !found {
		a.nodes.Add(m.NodeID)
	}
	a.members[m.NodeID] = m
}

func (a *Assigner) removeNode(nodeID string) bool {
	delete(a.members, nodeID)
	return a.nodes.Remove(nodeID)
}
