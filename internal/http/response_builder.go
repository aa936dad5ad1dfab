// Package http provides HTTP server and handler implementations.
//
// This file implements a small builder for JSON responses so every handler
// emits the same envelope and headers.

package http

import (
	"context"
	"encoding/json"
	"net/http"

	"wealth/internal/log"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a builder with a default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the response. A nil body writes only the status line.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	b.WriteContext(context.Background(), w)
}

// WriteContext is Write with encoding failures logged through the request
// logger. The body is encoded before any header goes out, so a value that
// cannot be encoded yields a 500 envelope instead of an empty 200.
func (b *JSONResponseBuilder) WriteContext(ctx context.Context, w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	status := b.statusCode
	data, err := json.Marshal(b.body)
	if err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentHTTP).ErrorContext(ctx, "Failed to encode response body",
			log.FieldStatusCode, b.statusCode,
			log.FieldError, err.Error(),
		)
		status = http.StatusInternalServerError
		data, _ = json.Marshal(ErrorBody{Message: "Failed to encode response", Error: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

// ErrorResponse builds a {success:false, message, error} response.
func ErrorResponse(statusCode int, message string, err error) *JSONResponseBuilder {
	body := ErrorBody{Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	return NewJSONResponse().Status(statusCode).Body(body)
}

// MessageResponse builds a {message} response, the shape used by record
// and account routes.
func MessageResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(map[string]string{"message": message})
}

func BadRequestError(message string, err error) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message, err)
}

func UnprocessableEntityError(message string, err error) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message, err)
}

func InternalServerError(message string, err error) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message, err)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message, nil)
}
