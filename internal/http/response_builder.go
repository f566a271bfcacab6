// Package http exposes the finboard JSON API.
//
// This file implements a small builder for JSON responses and the mapping
// from domain and store errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finboard/internal/auth"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/store"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

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

// Body sets the value encoded as the response body. A nil body writes none.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(payload, '\n'))
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func MethodNotAllowedError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed")
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

func ok(w http.ResponseWriter, v any) {
	NewJSONResponse().Body(v).Write(w)
}

func created(w http.ResponseWriter, v any) {
	NewJSONResponse().Status(http.StatusCreated).Body(v).Write(w)
}

func noContent(w http.ResponseWriter) {
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// errorResponse maps err to a response. Only validation and credential
// errors expose their message; anything unexpected is logged and reported as
// a generic 500.
func errorResponse(err error) (resp *JSONResponseBuilder, unexpected bool) {
	var ve *core.ValidationError
	var be *badRequest
	switch {
	case errors.As(err, &be):
		return BadRequestError(be.msg), false
	case errors.Is(err, core.ErrAlreadyCompletedToday):
		return ErrorResponse(http.StatusConflict, core.ErrAlreadyCompletedToday.Error()), false
	case errors.As(err, &ve):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Body(ErrorBody{Error: ve.Err.Error(), Field: ve.Field}), false
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError("not found"), false
	case errors.Is(err, store.ErrConflict):
		return ErrorResponse(http.StatusConflict, "the record was changed by another request, try again"), false
	case errors.Is(err, store.ErrDuplicate):
		return ErrorResponse(http.StatusConflict, "already exists"), false
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ErrorResponse(http.StatusUnauthorized, auth.ErrInvalidCredentials.Error()), false
	case errors.Is(err, auth.ErrInvalidToken):
		return ErrorResponse(http.StatusUnauthorized, auth.ErrInvalidToken.Error()), false
	default:
		return InternalServerError(), true
	}
}

// writeError answers with the mapped error and logs server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	resp, unexpected := errorResponse(err)
	if unexpected {
		logger := applog.NewStructuredLogger(applog.FromContext(r.Context()))
		logger.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, operation,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", ""))
	}
	resp.Write(w)
}
