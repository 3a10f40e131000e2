package policy

import (
	"fmt"

	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

var (
	// ErrRecursionGuard is returned for a cluster request issued by the initialization of the cluster resolver itself.
	ErrRecursionGuard = errors.New("request rejected, the cluster resolver is initializing")
	// ErrResolverFailed is returned after a failed initialization of the cluster resolver, the state is sticky.
	ErrResolverFailed = errors.New("the cluster resolver initialization failed")
	// ErrResolverClosed is returned after Shutdown.
	ErrResolverClosed = errors.New("the cluster resolver is closed")
)

// ParentError is a failure of the parent resolver, it is never retried via the cluster.
type ParentError struct {
	Name artifact.Name
	Err  error
}

func (e *ParentError) Error() string {
	return fmt.Sprintf(`parent cannot resolve artifact "%s": %s`, e.Name, e.Err)
}

func (e *ParentError) Unwrap() error {
	return e.Err
}
