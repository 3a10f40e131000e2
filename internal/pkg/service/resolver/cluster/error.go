package cluster

import (
	"fmt"

	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// ErrFetchTimeout is the cause of a fetch cancelled after Config.FetchTimeout.
var ErrFetchTimeout = errors.New("fetch timeout")

// TransportError is a failure to obtain an answer from a peer.
type TransportError struct {
	Peer Peer
	Name artifact.Name
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf(`cannot fetch artifact "%s" from the peer "%s": %s`, e.Name, e.Peer.NodeID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
