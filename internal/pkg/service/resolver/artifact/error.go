package artifact

import (
	"fmt"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// ErrNotResolvable is returned if no source provided the artifact.
var ErrNotResolvable = errors.New("artifact not resolvable")

type NotResolvableError struct {
	Name Name
}

func (e NotResolvableError) Error() string {
	return fmt.Sprintf(`artifact "%s" is not resolvable`, e.Name)
}

func (e NotResolvableError) Unwrap() error {
	return ErrNotResolvable
}
