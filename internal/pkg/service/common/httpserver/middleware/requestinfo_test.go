package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keboola/cluster-resolver/internal/pkg/ctxattr"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/httpserver/middleware"
)

func TestRequestInfoMiddleware(t *testing.T) {
	t.Parallel()

	// Create dummy handler
	var reqCtx context.Context
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		reqCtx = req.Context()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Register middleware
	handler = middleware.Wrap(handler, middleware.RequestInfo())

	// Send request
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	requestID := middleware.RequestIDFromContext(reqCtx)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, req.URL, reqCtx.Value(middleware.RequestURLCtxKey))
	assert.True(t, ctxattr.Attributes(reqCtx).HasValue("http.request_id"))
}
