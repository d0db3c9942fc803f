package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure is logged with its technical detail and request id, then
// answered with the core.MapError message. The storefront endpoints keep
// their historical {"error": "..."} envelope; the collection API returns
// ErrorResponse; HTMX clients get an HTML alert fragment.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/sheetdb/internal/core"
	"github.com/JonMunkholm/sheetdb/internal/logging"
	"github.com/JonMunkholm/sheetdb/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// legacyError is the envelope used by the storefront endpoints.
type legacyError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps engine failures to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrUnknownCollection):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEmptySchema):
		return http.StatusConflict
	case errors.Is(err, core.ErrNoIdentifier), errors.Is(err, core.ErrInvalidRecord):
		return http.StatusBadRequest
	case core.IsAuth(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case core.IsRemote(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError logs err and answers with the mapped user message in the
// format the client asked for.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := logFailure(r, err, status)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, status)
	case wantsJSON(r):
		writeJSON(w, status, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", status)
	}
}

// respondLegacyError answers a storefront endpoint with its fixed message.
func respondLegacyError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := statusFor(err)
	userMsg := logFailure(r, err, status)
	writeJSON(w, status, legacyError{Error: message, Code: userMsg.Code})
}

// logFailure logs client errors at warn level and everything else at error.
func logFailure(r *http.Request, err error, status int) core.UserMessage {
	userMsg := core.MapError(err)
	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)
	return userMsg
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("render error alert", "error", err)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
// API routes default to JSON.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeJSON encodes v with status. Encoding errors are only logged since
// headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode error", "error", err)
	}
}

// requestID returns the chi request id for responses that echo it.
func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
