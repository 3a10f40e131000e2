package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/iancoleman/strcase"
	"go.opentelemetry.io/otel/attribute"

	"github.com/keboola/cluster-resolver/internal/pkg/idgenerator"
	"github.com/keboola/cluster-resolver/internal/pkg/log"
	. "github.com/keboola/cluster-resolver/internal/pkg/service/common/errors"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/httpserver/middleware"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const (
	DefaultErrorName    = "internalError"
	DefaultErrorMessage = "Application error. Please contact the administrator with exception id (%s) attached."
)

type ErrorHandler func(context.Context, http.ResponseWriter, error)

// UnexpectedError is the JSON body of an error response.
type UnexpectedError struct {
	StatusCode  int     `json:"statusCode"`
	Name        string  `json:"error"`
	Message     string  `json:"message"`
	ExceptionID *string `json:"exceptionId,omitempty"`
}

type ErrorWriter struct {
	logger            log.Logger
	errorNamePrefix   string
	exceptionIDPrefix string
}

func NewErrorWriter(logger log.Logger, errorNamePrefix, exceptionIDPrefix string) ErrorWriter {
	return ErrorWriter{logger: logger, errorNamePrefix: errorNamePrefix, exceptionIDPrefix: exceptionIDPrefix}
}

func (wr ErrorWriter) WriteWithStatusCode(ctx context.Context, w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPCodeFrom(err))
	_ = wr.WriteOrErr(ctx, w, err)
}

func (wr ErrorWriter) WriteOrErr(ctx context.Context, w http.ResponseWriter, err error) error {
	// Get or generate requestID
	requestID := middleware.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = idgenerator.RequestID()
	}

	// Default values
	response := &UnexpectedError{
		StatusCode: HTTPCodeFrom(err),
		Name:       DefaultErrorName,
	}

	// Error name
	var nameProvider WithName
	if errors.As(err, &nameProvider) {
		response.Name = nameProvider.ErrorName()
	}

	// Normalize error name, e.g., "missing_field" to "resolver.missingField"
	if !strings.Contains(response.Name, ".") {
		response.Name = wr.errorNamePrefix + strcase.ToLowerCamel(response.Name)
	}

	// Generate exception ID for server errors
	if response.StatusCode > 499 {
		v := wr.exceptionIDPrefix + requestID
		response.ExceptionID = &v
	}

	// Error message
	var messageProvider WithUserMessage
	switch {
	case errors.As(err, &messageProvider):
		response.Message = messageProvider.ErrorUserMessage()
	case response.StatusCode > 499 && response.StatusCode != http.StatusServiceUnavailable:
		response.Message = errors.Errorf(DefaultErrorMessage, *response.ExceptionID).Error()
	default:
		response.Message = errors.Format(err)
	}

	// Log error
	var logEnabledProvider WithErrorLogEnabled
	if !errors.As(err, &logEnabledProvider) || logEnabledProvider.ErrorLogEnabled() {
		attrs := []attribute.KeyValue{attribute.String("error.name", response.Name)}
		if response.ExceptionID != nil {
			attrs = append(attrs, attribute.String("exceptionId", *response.ExceptionID))
		}

		logger := wr.logger.With(attrs...)
		logMessage := errors.Format(err, errors.FormatWithStack())
		if response.StatusCode > 499 {
			logger.Error(ctx, logMessage)
		} else {
			logger.Info(ctx, logMessage)
		}
	}

	// Write response
	body, encodeErr := jsonAPI.MarshalIndent(response, "", "  ")
	if encodeErr != nil {
		return encodeErr
	}
	_, err = w.Write(append(body, '\n'))
	return err
}
