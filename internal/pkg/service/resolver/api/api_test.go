package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/cluster-resolver/internal/pkg/service/common/dependencies"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/httpserver"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/api"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/definer"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/policy"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type fakeResolver struct {
	state policy.State
}

func (r *fakeResolver) State() policy.State {
	return r.state
}

func (r *fakeResolver) Resolve(_ context.Context, name artifact.Name) (artifact.Unit, error) {
	switch name {
	case "a.b.C":
		return artifact.Unit{
			Name:      name,
			Data:      []byte("content"),
			Source:    artifact.SourceCluster,
			Checksum:  0xabc,
			DefinedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}, nil
	case "a.b.Missing":
		return artifact.Unit{}, artifact.NotResolvableError{Name: name}
	case "a.b.Recursion":
		return artifact.Unit{}, errors.Errorf(`cannot resolve artifact "%s": %w`, name, policy.ErrRecursionGuard)
	case "a.b.Conflict":
		return artifact.Unit{}, errors.Errorf(`cannot define artifact "%s": %w`, name, definer.ErrAlreadyDefined)
	case "a.b.Failed":
		return artifact.Unit{}, errors.Errorf("%w: %w", policy.ErrResolverFailed, errors.New("etcd unavailable"))
	case "std.Missing":
		return artifact.Unit{}, &policy.ParentError{Name: name, Err: artifact.NotResolvableError{Name: name}}
	default:
		return artifact.Unit{}, errors.New("unexpected error")
	}
}

func TestAPI(t *testing.T) {
	t.Parallel()

	d := dependencies.NewMocked(t)
	resolver := &fakeResolver{state: policy.StateReady}
	srv := httpserver.New(context.Background(), d, httpserver.Config{
		ListenAddress:     "localhost:0",
		ErrorNamePrefix:   api.ErrorNamePrefix,
		ExceptionIDPrefix: api.ExceptionIDPrefix,
		Mount:             api.Mount(resolver),
	})

	// Found
	rec := request(t, srv, "/v1/artifacts/a.b.C")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "content", rec.Body.String())
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "cluster", rec.Header().Get(api.SourceHeader))
	assert.Equal(t, "abc", rec.Header().Get(api.ChecksumHeader))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	// Info
	rec = request(t, srv, "/v1/artifacts/a.b.C/info")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"a.b.C","source":"cluster","checksum":"abc","size":7,"definedAt":"2024-01-02T03:04:05Z"}`, rec.Body.String())

	// Errors
	cases := []struct {
		path       string
		statusCode int
		errorName  string
	}{
		{path: "/v1/artifacts/a.b.Missing", statusCode: http.StatusNotFound, errorName: "resolver.artifactNotFound"},
		{path: "/v1/artifacts/std.Missing", statusCode: http.StatusNotFound, errorName: "resolver.artifactNotFound"},
		{path: "/v1/artifacts/a.b.Recursion", statusCode: http.StatusConflict, errorName: "resolver.recursionGuard"},
		{path: "/v1/artifacts/a.b.Conflict", statusCode: http.StatusConflict, errorName: "resolver.artifactAlreadyExists"},
		{path: "/v1/artifacts/a.b.Failed", statusCode: http.StatusServiceUnavailable, errorName: "resolver.serviceUnavailable"},
		{path: "/v1/artifacts/a..C", statusCode: http.StatusBadRequest, errorName: "resolver.badRequest"},
		{path: "/v1/artifacts/a.b.Other", statusCode: http.StatusInternalServerError, errorName: "resolver.internalError"},
	}
	for _, tc := range cases {
		rec = request(t, srv, tc.path)
		assert.Equal(t, tc.statusCode, rec.Code, tc.path)
		assert.Contains(t, rec.Body.String(), `"error": "`+tc.errorName+`"`, tc.path)
	}

	// Health check
	rec = request(t, srv, api.HealthCheckPath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","resolver":"ready"}`, rec.Body.String())

	resolver.state = policy.StateFailed
	rec = request(t, srv, api.HealthCheckPath)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","resolver":"failed"}`, rec.Body.String())
}

func request(t *testing.T, srv *httpserver.HTTPServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, path, nil)
	require.NoError(t, err)
	srv.Handler.ServeHTTP(rec, req)
	return rec
}
