package httpserver

import (
	"context"
	"net/http"

	"github.com/dimfeld/httptreemux/v5"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	svcerrors "github.com/keboola/cluster-resolver/internal/pkg/service/common/errors"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

type Components struct {
	Muxer        *httptreemux.ContextMux
	ErrorHandler ErrorHandler
	Encoder      Encoder
}

func newComponents(cfg Config, logger log.Logger) Components {
	errorWr := NewErrorWriter(logger, cfg.ErrorNamePrefix, cfg.ExceptionIDPrefix)
	return Components{
		Muxer:        newMuxer(errorWr),
		ErrorHandler: errorWr.WriteWithStatusCode,
		Encoder:      NewEncoder(errorWr),
	}
}

func newMuxer(errorWr ErrorWriter) *httptreemux.ContextMux {
	mux := httptreemux.NewContextMux()
	mux.NotFoundHandler = func(w http.ResponseWriter, req *http.Request) {
		errorWr.WriteWithStatusCode(req.Context(), w, svcerrors.NewResourceNotFoundError("endpoint", req.URL.Path, "API"))
	}
	mux.MethodNotAllowedHandler = func(w http.ResponseWriter, req *http.Request, _ map[string]httptreemux.HandlerFunc) {
		errorWr.WriteWithStatusCode(req.Context(), w, methodNotAllowedError{method: req.Method})
	}
	mux.PanicHandler = func(w http.ResponseWriter, req *http.Request, value any) {
		errorWr.WriteWithStatusCode(context.WithoutCancel(req.Context()), w, errors.Errorf("panic: %v", value))
	}
	return mux
}

type methodNotAllowedError struct {
	method string
}

func (e methodNotAllowedError) ErrorName() string {
	return "methodNotAllowed"
}

func (e methodNotAllowedError) StatusCode() int {
	return http.StatusMethodNotAllowed
}

func (e methodNotAllowedError) Error() string {
	return `method "` + e.method + `" is not allowed`
}
