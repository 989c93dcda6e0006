package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged server-side with its technical detail and request id,
// then returned to the client as a coded user message from core.MapError.
// API routes get JSON; pages get an HTML error page.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
	"github.com/JonMunkholm/woudc-registry/internal/core"
	"github.com/JonMunkholm/woudc-registry/internal/extcsv"
	"github.com/JonMunkholm/woudc-registry/internal/web/templates"
)

var (
	errNoFile         = errors.New("no file provided")
	errFileTooLarge   = errors.New("file too large")
	errInvalidRequest = errors.New("invalid request")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error       string   `json:"error"`
	Message     string   `json:"message"`
	Action      string   `json:"action,omitempty"`
	Code        string   `json:"code"`
	Suggestions []string `json:"suggestions,omitempty"`
	RequestID   string   `json:"requestId"`
}

// invalidRequest wraps a client mistake so it maps to REQ004.
func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errInvalidRequest}, args...)...)
}

// statusFor picks the HTTP status for an error returned by the service layer.
func statusFor(err error) int {
	var (
		rerr  *catalog.ResolutionError
		perr  *extcsv.ParseError
		maxer *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxer), errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.As(err, &rerr):
		return http.StatusNotFound
	case errors.Is(err, core.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStoreDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrTooManyValidations):
		return http.StatusServiceUnavailable
	case errors.As(err, &perr),
		errors.Is(err, extcsv.ErrEmptyFile),
		errors.Is(err, extcsv.ErrNotExtendedCSV),
		errors.Is(err, extcsv.ErrMissingContent),
		errors.Is(err, extcsv.ErrInvalidForm):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status statusFor picks.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusFor(err))
}

// respondError logs the technical error and returns a user-friendly one,
// as JSON for API clients and as a page otherwise.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}

	log := slog.Warn
	if statusCode >= http.StatusInternalServerError {
		log = slog.Error
	}
	log("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", requestID,
	)

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		templates.ErrorPage(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
		return
	}

	resp := ErrorResponse{
		Error:     userMsg.Message,
		Message:   userMsg.Message,
		Action:    userMsg.Action,
		Code:      userMsg.Code,
		RequestID: requestID,
	}
	var rerr *catalog.ResolutionError
	if errors.As(err, &rerr) {
		resp.Suggestions = rerr.Suggestions
	}
	writeJSON(w, statusCode, resp)
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
