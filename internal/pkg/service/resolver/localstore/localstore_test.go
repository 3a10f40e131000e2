package localstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/localstore"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

func TestStore_ReadWrite(t *testing.T) {
	t.Parallel()

	store := localstore.New(afero.NewMemMapFs(), "")

	_, err := store.Read("com.example.Foo")
	assert.True(t, errors.Is(err, localstore.ErrNotFound))

	require.NoError(t, store.Write("com.example.Foo", []byte("foo")))
	require.NoError(t, store.Write("com.example.Bar", []byte("bar")))
	require.NoError(t, store.Write("Top", []byte{}))

	data, err := store.Read("com.example.Foo")
	require.NoError(t, err)
	assert.Equal(t, []byte("foo"), data)

	// Empty content is a valid artifact
	data, err = store.Read("Top")
	require.NoError(t, err)
	assert.Empty(t, data)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []artifact.Name{"Top", "com.example.Bar", "com.example.Foo"}, names)
}

func TestStore_Path(t *testing.T) {
	t.Parallel()

	store := localstore.New(afero.NewMemMapFs(), ".class")

	p, err := store.Path("com.example.Foo")
	require.NoError(t, err)
	assert.Equal(t, "com/example/Foo.class", p)

	_, err = store.Path("com/../../etc.passwd")
	require.Error(t, err)

	_, err = store.Read("com...Foo")
	require.Error(t, err)
	assert.False(t, errors.Is(err, localstore.ErrNotFound))
}

func TestNewReadOnlyDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "std"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "std", "runtime.bin"), []byte("runtime"), 0o600))

	store, err := localstore.NewReadOnlyDir(dir, "")
	require.NoError(t, err)

	data, err := store.Read("std.runtime")
	require.NoError(t, err)
	assert.Equal(t, []byte("runtime"), data)

	require.Error(t, store.Write("std.other", []byte("other")))

	_, err = localstore.NewReadOnlyDir(filepath.Join(dir, "missing"), "")
	require.Error(t, err)
}
