package errors

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

func TestHTTPCodeFrom(t *testing.T) {
	t.Parallel()
	assert.Equal(t, StatusClientClosedRequest, HTTPCodeFrom(context.Canceled))
	assert.Equal(t, http.StatusRequestTimeout, HTTPCodeFrom(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, HTTPCodeFrom(errors.New("some error")))
	assert.Equal(t, http.StatusConflict, HTTPCodeFrom(NewResourceAlreadyExistsError("<what>", "<key>", "<in>")))
	assert.Equal(t, http.StatusBadRequest, HTTPCodeFrom(NewBadRequestError(errors.New("message"))))
	assert.Equal(t, http.StatusNotFound, HTTPCodeFrom(NewResourceNotFoundError("<what>", "<key>", "<in>")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPCodeFrom(NewServiceUnavailableError(errors.New("message"))))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPCodeFrom(errors.PrefixError(NewServiceUnavailableError(errors.New("message")), "prefix")))
}

func TestResourceNotFoundError(t *testing.T) {
	t.Parallel()
	cause := errors.New("cause")
	err := NewResourceNotFoundError("artifact", "a.b.C", "cluster").Wrap(cause)
	assert.Equal(t, `artifact "a.b.C" not found in the cluster`, err.Error())
	assert.Equal(t, "artifactNotFound", err.ErrorName())
	assert.ErrorIs(t, err, cause)
}
