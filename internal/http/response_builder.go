// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps ledger errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse(payload any) *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		payload:    payload,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	body, err := json.Marshal(b.payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal_error","message":"response encoding failed"}`))
		return
	}
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

// errorBody is the payload of every non-2xx response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse creates a response with the given status and error code.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse(errorBody{Error: code, Message: message}).Status(statusCode)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, applog.ErrorTypeValidation, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed").
		Header("Allow", allowedMethods)
}

// errorKind classifies err for the response and the log record.
func errorKind(err error) (status int, errType string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrNotInitialized):
		return http.StatusConflict, applog.ErrorTypeNotInitialized
	case errors.Is(err, core.ErrStorage):
		return http.StatusInternalServerError, applog.ErrorTypeStorage
	default:
		return http.StatusInternalServerError, applog.ErrorTypeInternal
	}
}

// ServiceError maps a ledger error to its response. Validation errors carry
// the offending field; storage and internal failures hide their cause.
func ServiceError(err error) *JSONResponseBuilder {
	status, errType := errorKind(err)
	body := errorBody{Error: errType}

	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		body.Field = verr.Field
		body.Message = verr.Err.Error()
	case status == http.StatusConflict:
		body.Message = core.ErrNotInitialized.Error()
	default:
		body.Message = "the ledger could not be read or written"
	}
	return NewJSONResponse(body).Status(status)
}
