package httpserver

import (
	"context"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Encoder writes a JSON response, an encoding error is written by the ErrorWriter.
type Encoder func(ctx context.Context, w http.ResponseWriter, statusCode int, v any)

func NewEncoder(errorWr ErrorWriter) Encoder {
	return func(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
		body, err := jsonAPI.MarshalIndent(v, "", "  ")
		if err != nil {
			errorWr.WriteWithStatusCode(ctx, w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write(append(body, '\n'))
	}
}
