// Package distribution provides discovery of nodes in a cluster group and assignment of keys between them.
//
// The package consists of:
// - Registration of the node in the cluster group as an etcd key (with lease), the value is the Member.
// - Discovering of other nodes in the group by the etcd Watch API.
// - Local decision and assignment of a key to a specific node (by a consistent hash/HashRing approach).
//
// # Atomicity
//
// During watch propagation or lease timeout, individual nodes can have a different list of the active nodes.
// The assignment is therefore only a hint, for example to try the owner of an artifact first.
//
// # Listeners
//
// Use Node.OnChangeListener method to create a listener for nodes distribution change events.
package distribution

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	etcd "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/etcdop"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const nodesPrefixFormat = "runtime/distribution/group/%s/nodes/"

type Node struct {
	*assigner
	clock     clockwork.Clock
	logger    log.Logger
	client    *etcd.Client
	config    Config
	member    Member
	prefix    etcdop.PrefixT[Member]
	listeners *listeners
}

type assigner = Assigner

type dependencies interface {
	Clock() clockwork.Clock
	Logger() log.Logger
	Process() *servicectx.Process
	EtcdClient() *etcd.Client
}

type NodeOption func(c *nodeConfig)

type nodeConfig struct {
	address string
}

// WithAdvertisedAddress sets address of the node for node-to-node communication.
func WithAdvertisedAddress(v string) NodeOption {
	return func(c *nodeConfig) {
		c.address = v
	}
}

// NewNode registers the node to the cluster group and waits until the node sees itself.
func NewNode(nodeID string, cfg Config, d dependencies, opts ...NodeOption) (*Node, error) {
	c := nodeConfig{}
	for _, o := range opts {
		o(&c)
	}

	if nodeID == "" {
		return nil, errors.New("node ID cannot be empty")
	}
	if cfg.Group == "" {
		return nil, errors.New("group name cannot be empty")
	}

	n := &Node{
		assigner: newAssigner(nodeID),
		clock:    d.Clock(),
		logger:   d.Logger().WithComponent("distribution"),
		client:   d.EtcdClient(),
		config:   cfg,
		member:   Member{NodeID: nodeID, Address: c.address},
		prefix:   etcdop.NewTypedPrefix[Member](fmt.Sprintf(nodesPrefixFormat, cfg.Group), etcdop.NewJSONSerialization(validateMember)),
	}
	n.listeners = newListeners(n.logger)

	proc := d.Process()
	startCtx, startCancel := context.WithTimeout(context.Background(), cfg.StartupTimeout)
	defer startCancel()

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	proc.OnShutdown(func(shutdownCtx context.Context) {
		n.logger.Info(shutdownCtx, "received shutdown request")
		n.unregister(shutdownCtx)
		cancel()
		wg.Wait()
		n.listeners.stopAll()
		n.logger.Info(shutdownCtx, "shutdown done")
	})

	// Register the node, the registration is repeated on a new session
	sessionInit := etcdop.ResistantSession(ctx, wg, n.logger, n.client, cfg.TTLSeconds, func(session *concurrency.Session) error {
		registerCtx, registerCancel := context.WithTimeout(ctx, cfg.StartupTimeout)
		defer registerCancel()
		return n.register(registerCtx, session)
	})
	select {
	case err := <-sessionInit:
		if err != nil {
			return nil, errors.PrefixErrorf(err, `cannot register the node "%s"`, nodeID)
		}
	case <-startCtx.Done():
		return nil, errors.Errorf(`cannot register the node "%s": %w`, nodeID, startCtx.Err())
	}

	// Watch for nodes
	if err := n.watch(ctx, startCtx, wg); err != nil {
		return nil, err
	}

	return n, nil
}

// Self returns registration of the current node.
func (n *Node) Self() Member {
	return n.member
}

// OnChangeListener returns a new listener, it contains channel C with streamed distribution change Events.
func (n *Node) OnChangeListener() *Listener {
	return n.listeners.add()
}

// register node in the etcd prefix,
// un-registration is ensured double: by OnShutdown callback and by the lease.
func (n *Node) register(ctx context.Context, session *concurrency.Session) error {
	startTime := n.clock.Now()
	n.logger.Infof(ctx, `registering the node "%s"`, n.member.NodeID)

	key := n.prefix.Key(n.member.NodeID)
	if err := key.Put(n.client, n.member, etcd.WithLease(session.Lease())).Do(ctx); err != nil {
		return err
	}

	n.logger.WithDuration(n.clock.Since(startTime)).Infof(ctx, `the node "%s" registered`, n.member.NodeID)
	return nil
}

func (n *Node) unregister(ctx context.Context) {
	startTime := n.clock.Now()
	n.logger.Infof(ctx, `unregistering the node "%s"`, n.member.NodeID)

	if _, err := n.prefix.Key(n.member.NodeID).Delete(n.client).Do(ctx); err != nil {
		n.logger.Warnf(ctx, `cannot unregister the node "%s": %s`, n.member.NodeID, err)
	}

	n.logger.WithDuration(n.clock.Since(startTime)).Infof(ctx, `the node "%s" unregistered`, n.member.NodeID)
}

// watch for other nodes, it returns after the initial sync which contains the node itself.
func (n *Node) watch(ctx, startCtx context.Context, wg *sync.WaitGroup) error {
	initDone := make(chan error, 1)
	selfDiscovered := make(chan struct{})
	ch := n.prefix.GetAllAndWatch(ctx, n.client)

	wg.Add(1)
	go func() {
		defer wg.Done()
		n.logger.Info(ctx, "watching for other nodes")

		initialized := false
		selfFound := false
		for resp := range ch {
			if resp.Err != nil {
				if !initialized && resp.Created {
					initDone <- resp.Err
					return
				}
				n.logger.Errorf(ctx, "watcher failed: %s", resp.Err)
			}

			n.onWatchResponse(ctx, resp, initialized)

			if resp.Created && !initialized {
				initialized = true
				close(initDone)
			}
			if !selfFound && n.HasNode(n.member.NodeID) {
				selfFound = true
				close(selfDiscovered)
			}
		}
	}()

	// Wait for initial sync
	select {
	case err := <-initDone:
		if err != nil {
			return errors.PrefixError(err, "cannot load nodes")
		}
	case <-startCtx.Done():
		return errors.Errorf("cannot load nodes: %w", startCtx.Err())
	}

	// Wait for self-discovery
	select {
	case <-selfDiscovered:
		return nil
	case <-startCtx.Done():
		return errors.Errorf(`the node "%s" has not discovered itself: %w`, n.member.NodeID, startCtx.Err())
	}
}

// onWatchResponse updates the assigner, the initial response is not reported to listeners.
func (n *Node) onWatchResponse(ctx context.Context, resp etcdop.WatchResponseT[Member], notify bool) {
	var events Events

	n.assigner.lock()
	if resp.Created {
		n.assigner.resetNodes()
	}
	for _, rawEvent := range resp.Events {
		switch rawEvent.Type {
		case etcdop.CreateEvent, etcdop.UpdateEvent:
			member := rawEvent.Value
			if member.NodeID == "" {
				continue
			}
			known := n.assigner.members[member.NodeID]
			n.assigner.addNode(member)
			if rawEvent.Type == etcdop.UpdateEvent && known.NodeID != "" {
				continue
			}
			events = append(events, Event{
				Type:    EventNodeAdded,
				NodeID:  member.NodeID,
				Message: fmt.Sprintf(`found a new node "%s"`, member.NodeID),
			})
		case etcdop.DeleteEvent:
			nodeID := rawEvent.Value.NodeID
			if nodeID == "" && rawEvent.Kv != nil {
				nodeID = keyToNodeID(n.prefix.Prefix(), string(rawEvent.Kv.Key))
			}
			if !n.assigner.removeNode(nodeID) {
				continue
			}
			events = append(events, Event{
				Type:    EventNodeRemoved,
				NodeID:  nodeID,
				Message: fmt.Sprintf(`the node "%s" gone`, nodeID),
			})
		default:
			n.assigner.unlock()
			panic(errors.Errorf(`unexpected event type "%s"`, rawEvent.Type.String()))
		}
	}
	n.assigner.unlock()

	for _, event := range events {
		n.logger.Info(ctx, event.Message)
	}
	if notify && len(events) > 0 {
		n.listeners.notify(events)
	}
}

func keyToNodeID(prefix, key string) string {
	nodeID, _ := strings.CutPrefix(key, prefix)
	return nodeID
}

func validateMember(_ context.Context, value any) error {
	var m Member
	switch v := value.(type) {
	case Member:
		m = v
	case *Member:
		m = *v
	default:
		return errors.Errorf(`unexpected type "%T"`, value)
	}
	if m.NodeID == "" {
		return errors.New(`field "nodeId" is required`)
	}
	return nil
}
