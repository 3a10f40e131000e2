package artifact_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

func TestBytes_AbsentIsNotEmpty(t *testing.T) {
	t.Parallel()

	assert.False(t, artifact.Absent().IsFound())
	assert.True(t, artifact.Found(nil).IsFound())
	assert.True(t, artifact.Found([]byte{}).IsFound())
	assert.Equal(t, []byte("B"), artifact.Found([]byte("B")).Data())
}

func TestName_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name artifact.Name
		err  string
	}{
		{name: "com.example.Foo"},
		{name: "Foo"},
		{name: "", err: "artifact name cannot be empty"},
		{name: "com..Foo", err: `artifact name "com..Foo" contains an empty segment`},
		{name: ".Foo", err: `artifact name ".Foo" contains an empty segment`},
		{name: "com/example.Foo", err: `artifact name "com/example.Foo" contains a path separator`},
		{name: "com.exa mple", err: `artifact name "com.exa mple" contains a whitespace`},
	}

	for _, tc := range cases {
		err := tc.name.Validate()
		if tc.err == "" {
			assert.NoError(t, err, tc.name)
		} else if assert.Error(t, err, tc.name) {
			assert.Equal(t, tc.err, err.Error())
		}
	}
}

func TestNotResolvableError(t *testing.T) {
	t.Parallel()

	err := errors.PrefixError(artifact.NotResolvableError{Name: "a.b.C"}, "cannot resolve")
	assert.True(t, errors.Is(err, artifact.ErrNotResolvable))
	assert.Equal(t, `cannot resolve: artifact "a.b.C" is not resolvable`, err.Error())

	var typed artifact.NotResolvableError
	assert.True(t, errors.As(err, &typed))
	assert.Equal(t, artifact.Name("a.b.C"), typed.Name)
}

func TestSource_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "already-resolved", artifact.SourceAlreadyResolved.String())
	assert.Equal(t, "parent", artifact.SourceParent.String())
	assert.Equal(t, "local", artifact.SourceLocal.String())
	assert.Equal(t, "cluster", artifact.SourceCluster.String())
	assert.Equal(t, "unknown", artifact.Source(0).String())
}
