// Package artifact defines the resolved unit of work: a named binary definition.
package artifact

import (
	"strings"
	"time"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

// Name is a unique artifact key, for example "com.example.Foo".
type Name string

// Bytes is the optional result of a lookup.
// An absent value is distinct from an empty one.
type Bytes struct {
	found bool
	data  []byte
}

// Unit is an artifact bound to the local process.
type Unit struct {
	Name      Name
	Data      []byte
	Source    Source
	Checksum  uint64
	DefinedAt time.Time
}

// Source describes how the policy obtained the Unit.
type Source int

const (
	SourceAlreadyResolved Source = iota + 1
	SourceParent
	SourceLocal
	SourceCluster
)

func Found(data []byte) Bytes {
	return Bytes{found: true, data: data}
}

func Absent() Bytes {
	return Bytes{}
}

func (b Bytes) IsFound() bool {
	return b.found
}

// Data returns the artifact content, the slice must not be modified.
func (b Bytes) Data() []byte {
	return b.data
}

func (b Bytes) String() string {
	if !b.found {
		return "absent"
	}
	return "found"
}

func (n Name) String() string {
	return string(n)
}

// Segments splits the name by dots.
func (n Name) Segments() []string {
	return strings.Split(string(n), ".")
}

// Validate checks that each dot-separated segment is non-empty and does not contain a path separator or a whitespace.
func (n Name) Validate() error {
	if n == "" {
		return errors.New("artifact name cannot be empty")
	}
	for _, segment := range n.Segments() {
		switch {
		case segment == "":
			return errors.Errorf(`artifact name "%s" contains an empty segment`, n)
		case strings.ContainsAny(segment, `/\`):
			return errors.Errorf(`artifact name "%s" contains a path separator`, n)
		case strings.ContainsAny(segment, " \t\r\n"):
			return errors.Errorf(`artifact name "%s" contains a whitespace`, n)
		}
	}
	return nil
}

func (s Source) String() string {
	switch s {
	case SourceAlreadyResolved:
		return "already-resolved"
	case SourceParent:
		return "parent"
	case SourceLocal:
		return "local"
	case SourceCluster:
		return "cluster"
	default:
		return "unknown"
	}
}
