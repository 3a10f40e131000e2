package etcdhelper

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/keboola/go-utils/pkg/wildcards"
	"github.com/stretchr/testify/assert"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type tHelper interface {
	Helper()
}

// AssertKVsString dumps all keys and values from the etcd database and compares them with the expected string.
// Each KV is formatted as "<key>\n-----\n<value>\n>>>>>" and wildcards can be used in the expected string.
func AssertKVsString(t assert.TestingT, client etcd.KV, expected string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	actual, err := DumpAllKVs(context.Background(), client)
	if err != nil {
		return assert.Fail(t, fmt.Sprintf("cannot dump etcd KVs: %s", err))
	}

	return assertWildcards(t, strings.TrimSpace(expected), strings.TrimSpace(actual))
}

// AssertKeys compares sorted keys from the etcd database with the expected keys, wildcards can be used.
func AssertKeys(t assert.TestingT, client etcd.KV, expected []string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	keys, err := DumpAllKeys(context.Background(), client)
	if err != nil {
		return assert.Fail(t, fmt.Sprintf("cannot dump etcd keys: %s", err))
	}

	sort.Strings(expected)
	return assertWildcards(t, strings.Join(expected, "\n"), strings.Join(keys, "\n"))
}

func assertWildcards(t assert.TestingT, expected, actual string) bool {
	if err := wildcards.Compare(expected, actual); err != nil {
		return assert.Fail(t, fmt.Sprintf("unexpected etcd state:\n%s\n\nActual:\n%s", err, actual))
	}
	return true
}

func DumpAllKeys(ctx context.Context, client etcd.KV) ([]string, error) {
	resp, err := client.Get(ctx, "", etcd.WithFromKey(), etcd.WithKeysOnly(), etcd.WithSort(etcd.SortByKey, etcd.SortAscend))
	if err != nil {
		return nil, errors.PrefixError(err, "cannot get all keys")
	}
	keys := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keys = append(keys, string(kv.Key))
	}
	return keys, nil
}

func DumpAllKVs(ctx context.Context, client etcd.KV) (string, error) {
	resp, err := client.Get(ctx, "", etcd.WithFromKey(), etcd.WithSort(etcd.SortByKey, etcd.SortAscend))
	if err != nil {
		return "", errors.PrefixError(err, "cannot get all KVs")
	}
	var out strings.Builder
	for _, kv := range resp.Kvs {
		_, _ = fmt.Fprintf(&out, "<<<<<\n%s\n-----\n%s\n>>>>>\n\n", kv.Key, kv.Value)
	}
	return out.String(), nil
}
