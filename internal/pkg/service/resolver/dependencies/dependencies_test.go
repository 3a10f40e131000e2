package dependencies_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/cluster-resolver/internal/pkg/idgenerator"
	commonDeps "github.com/keboola/cluster-resolver/internal/pkg/service/common/dependencies"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/dependencies"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/policy"
)

func TestServiceScope_ResolveFromCluster(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ns := idgenerator.EtcdNamespaceForTest()
	node1, _ := dependencies.NewMockedServiceScope(t, dependencies.NewTestConfig("node1"), commonDeps.WithEtcdNamespace(ns))
	node2, _ := dependencies.NewMockedServiceScope(t, dependencies.NewTestConfig("node2"), commonDeps.WithEtcdNamespace(ns))

	// Both nodes see each other
	assert.Eventually(t, func() bool {
		expected := []string{"node1", "node2"}
		return reflect.DeepEqual(expected, node1.DistributionNode().Nodes()) && reflect.DeepEqual(expected, node2.DistributionNode().Nodes())
	}, 10*time.Second, 50*time.Millisecond)

	// Only node2 has the artifact
	name := artifact.Name("a.b.C")
	require.NoError(t, node2.LocalStore().Write(name, []byte("content")))

	// Node1 finds the artifact on node2
	unit, err := node1.Resolver().Resolve(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, artifact.SourceCluster, unit.Source)
	assert.Equal(t, []byte("content"), unit.Data)
	assert.Equal(t, policy.StateReady, node1.Resolver().State())

	// The second request is answered by the definer
	unit, err = node1.Resolver().Resolve(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, artifact.SourceAlreadyResolved, unit.Source)

	// The result is in the shared cache
	result, err := node2.Cache().Get(ctx, name)
	require.NoError(t, err)
	assert.True(t, result.IsFound())
	assert.Equal(t, []byte("content"), result.Data())

	// Node2 has the artifact locally
	unit, err = node2.Resolver().Resolve(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, artifact.SourceLocal, unit.Source)

	// Missing artifact
	_, err = node1.Resolver().Resolve(ctx, "x.y.Missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrNotResolvable)
}

func TestServiceScope_DelegatedName(t *testing.T) {
	t.Parallel()

	node, _ := dependencies.NewMockedServiceScope(t, dependencies.NewTestConfig("node1"))

	// The platform store is empty
	_, err := node.Resolver().Resolve(context.Background(), "std.Missing")
	require.Error(t, err)
	var parentErr *policy.ParentError
	assert.ErrorAs(t, err, &parentErr)
	assert.ErrorIs(t, err, artifact.ErrNotResolvable)

	// The cluster resolver is not initialized by a delegated name
	assert.Equal(t, policy.StateUninitialized, node.Resolver().State())
}
