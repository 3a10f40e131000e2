package etcdop_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/cluster-resolver/internal/pkg/service/common/etcdop"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/etcdhelper"
)

type fooType struct {
	Name string `json:"name"`
}

func TestTypedKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := etcdhelper.ClientForTest(t, "")

	key := etcdop.NewTypedPrefix[fooType]("my-prefix", etcdop.NewJSONSerialization(nil)).Key("my-key")

	kv, err := key.Get(client).Do(ctx)
	require.NoError(t, err)
	assert.Nil(t, kv)

	ok, err := key.PutIfNotExists(client, fooType{Name: "first"}).Do(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// First writer wins
	ok, err = key.PutIfNotExists(client, fooType{Name: "second"}).Do(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	kv, err = key.Get(client).Do(ctx)
	require.NoError(t, err)
	require.NotNil(t, kv)
	assert.Equal(t, "first", kv.Value.Name)

	require.NoError(t, key.Put(client, fooType{Name: "replaced"}).Do(ctx))
	etcdhelper.AssertKVsString(t, client, `
<<<<<
my-prefix/my-key
-----
{"name":"replaced"}
>>>>>
`)

	deleted, err := key.Delete(client).Do(ctx)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := etcdhelper.ClientForTest(t, "")

	pfxNoValidation := etcdop.NewTypedPrefix[fooType]("my-prefix", etcdop.NewJSONSerialization(nil))
	pfxFailingValidation := etcdop.NewTypedPrefix[fooType]("my-prefix", etcdop.NewJSONSerialization(
		func(ctx context.Context, value any) error {
			return errors.New("validation error")
		},
	))

	err := pfxFailingValidation.Key("my-key").Put(client, fooType{}).Do(ctx)
	require.Error(t, err)
	assert.Equal(t, "etcd operation \"put\" failed:\n- invalid value for \"my-prefix/my-key\": validation error", err.Error())

	require.NoError(t, pfxNoValidation.Key("my-key").Put(client, fooType{Name: "foo"}).Do(ctx))

	_, err = pfxFailingValidation.Key("my-key").Get(client).Do(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `validation error`)

	_, err = pfxFailingValidation.GetAll(client).Do(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `etcd operation "get all" failed`)
}

func TestPrefix_GetAllAndWatch(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client := etcdhelper.ClientForTest(t, "")

	pfx := etcdop.NewTypedPrefix[fooType]("my-prefix", etcdop.NewJSONSerialization(nil))
	require.NoError(t, pfx.Key("key1").Put(client, fooType{Name: "one"}).Do(ctx))

	ch := pfx.GetAllAndWatch(ctx, client)

	initial := <-ch
	require.NoError(t, initial.Err)
	assert.True(t, initial.Created)
	require.Len(t, initial.Events, 1)
	assert.Equal(t, "one", initial.Events[0].Value.Name)

	require.NoError(t, pfx.Key("key2").Put(client, fooType{Name: "two"}).Do(ctx))
	resp := <-ch
	require.Len(t, resp.Events, 1)
	assert.Equal(t, etcdop.CreateEvent, resp.Events[0].Type)
	assert.Equal(t, "two", resp.Events[0].Value.Name)

	_, err := pfx.Key("key1").Delete(client).Do(ctx)
	require.NoError(t, err)
	resp = <-ch
	require.Len(t, resp.Events, 1)
	assert.Equal(t, etcdop.DeleteEvent, resp.Events[0].Type)
	assert.Equal(t, "one", resp.Events[0].Value.Name)

	count, err := pfx.DeleteAll(client).Do(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
