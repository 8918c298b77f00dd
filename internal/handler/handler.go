// Package handler provides the HTTP handlers of the expense API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/exptrack/exptrack/internal/middleware"
)

// Handler serves the unauthenticated root routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello is the API landing route.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Welcome to the Expense Tracker API")
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
}

type messageResponse struct {
	Msg string `json:"msg"`
}

type validationResponse struct {
	Errors middleware.FieldErrors `json:"errors"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeMessage writes a {"msg": ...} body.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Msg: msg})
}

// writeValidationErrors writes a 400 with the failed field checks.
func writeValidationErrors(w http.ResponseWriter, errs middleware.FieldErrors) {
	writeJSON(w, http.StatusBadRequest, validationResponse{Errors: errs})
}

// writeFieldError writes a 400 for a single failed field.
func writeFieldError(w http.ResponseWriter, field string, err error) {
	var errs middleware.FieldErrors
	errs.Check(field, err)
	writeValidationErrors(w, errs)
}

// writeInternalError logs err with the request id and writes the generic 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("request failed",
		slog.String("error", err.Error()),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	middleware.WriteInternalError(w)
}

// decodeJSON decodes the request body into dst.
// An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeDecodeError answers a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	writeMessage(w, http.StatusBadRequest, "Invalid request body")
}
