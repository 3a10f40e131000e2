// Package api provides the HTTP entry point used by the host platform to resolve artifacts.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dimfeld/httptreemux/v5"

	svcerrors "github.com/keboola/cluster-resolver/internal/pkg/service/common/errors"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/httpserver"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/artifact"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/definer"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/policy"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const (
	ErrorNamePrefix   = "resolver."
	ExceptionIDPrefix = "keboola-resolver-"
	SourceHeader      = "X-Artifact-Source"
	ChecksumHeader    = "X-Artifact-Checksum"
	HealthCheckPath   = "/health-check"
)

type Resolver interface {
	Resolve(ctx context.Context, name artifact.Name) (artifact.Unit, error)
	State() policy.State
}

// ArtifactInfo is the JSON response of the info endpoint.
type ArtifactInfo struct {
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Checksum  string    `json:"checksum"`
	Size      int       `json:"size"`
	DefinedAt time.Time `json:"definedAt"`
}

// HealthCheck is the JSON response of the health check endpoint.
type HealthCheck struct {
	Status   string `json:"status"`
	Resolver string `json:"resolver"`
}

type handlers struct {
	components httpserver.Components
	resolver   Resolver
}

// Mount returns a function which registers all endpoints to the muxer.
func Mount(resolver Resolver) func(c httpserver.Components) {
	return func(c httpserver.Components) {
		h := &handlers{components: c, resolver: resolver}
		c.Muxer.GET(HealthCheckPath, h.healthCheck)
		c.Muxer.GET("/v1/artifacts/:name", h.artifact)
		c.Muxer.GET("/v1/artifacts/:name/info", h.artifactInfo)
	}
}

func (h *handlers) healthCheck(w http.ResponseWriter, req *http.Request) {
	state := h.resolver.State()
	status := "ok"
	statusCode := http.StatusOK
	if state == policy.StateFailed {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}
	h.components.Encoder(req.Context(), w, statusCode, HealthCheck{Status: status, Resolver: state.String()})
}

func (h *handlers) artifact(w http.ResponseWriter, req *http.Request) {
	unit, ok := h.resolve(w, req)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(unit.Data)))
	w.Header().Set(SourceHeader, unit.Source.String())
	w.Header().Set(ChecksumHeader, formatChecksum(unit.Checksum))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(unit.Data)
}

func (h *handlers) artifactInfo(w http.ResponseWriter, req *http.Request) {
	unit, ok := h.resolve(w, req)
	if !ok {
		return
	}

	h.components.Encoder(req.Context(), w, http.StatusOK, ArtifactInfo{
		Name:      unit.Name.String(),
		Source:    unit.Source.String(),
		Checksum:  formatChecksum(unit.Checksum),
		Size:      len(unit.Data),
		DefinedAt: unit.DefinedAt.UTC(),
	})
}

func (h *handlers) resolve(w http.ResponseWriter, req *http.Request) (artifact.Unit, bool) {
	ctx := req.Context()
	name := artifact.Name(httptreemux.ContextParams(ctx)["name"])

	if err := name.Validate(); err != nil {
		h.components.ErrorHandler(ctx, w, svcerrors.NewBadRequestError(err))
		return artifact.Unit{}, false
	}

	unit, err := h.resolver.Resolve(ctx, name)
	if err != nil {
		h.components.ErrorHandler(ctx, w, mapError(name, err))
		return artifact.Unit{}, false
	}

	return unit, true
}

// mapError converts resolver errors to errors with an HTTP status code.
func mapError(name artifact.Name, err error) error {
	var notResolvable artifact.NotResolvableError
	switch {
	case errors.As(err, &notResolvable):
		return svcerrors.NewResourceNotFoundError("artifact", name.String(), "cluster").Wrap(err)
	case errors.Is(err, policy.ErrRecursionGuard):
		return recursionError{err: err}
	case errors.Is(err, definer.ErrAlreadyDefined):
		return svcerrors.NewResourceAlreadyExistsError("artifact", name.String(), "process")
	case errors.Is(err, policy.ErrResolverFailed), errors.Is(err, policy.ErrResolverClosed):
		return svcerrors.NewServiceUnavailableError(err)
	default:
		return err
	}
}

func formatChecksum(v uint64) string {
	return strconv.FormatUint(v, 16)
}

type recursionError struct {
	err error
}

func (recursionError) ErrorName() string {
	return "recursionGuard"
}

func (recursionError) StatusCode() int {
	return http.StatusConflict
}

func (e recursionError) Unwrap() error {
	return e.err
}

func (e recursionError) Error() string {
	return e.err.Error()
}
