package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err), which picks the status with statusFor
//  3. Error is mapped via core.MapError to get a support code and action
//  4. Technical error + context is logged with request ID for correlation
//  5. Client receives {"detail", "code", "action"}

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/smartmart/internal/core"
	"github.com/JonMunkholm/smartmart/internal/logging"
	"github.com/JonMunkholm/smartmart/internal/store"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
	Action string `json:"action,omitempty"`
}

// Request-level failures that happen before the service sees the upload.
var (
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large")
)

// statusFor chooses the HTTP status for an error returned by the service.
func statusFor(err error) int {
	var ie *core.ImportError
	var ve *core.ValidationError
	switch {
	case errors.Is(err, core.ErrUnknownTable):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests
	case errors.As(err, &ie):
		return http.StatusBadRequest
	case errors.Is(err, errNoFile), errors.Is(err, errFileTooLarge):
		return http.StatusBadRequest
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrConstraintViolation):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// detailFor returns the client-facing description of err. Import errors,
// validation errors and constraint errors describe themselves; anything
// else gets the mapped message so internals do not leak.
func detailFor(err error, msg core.UserMessage) string {
	var ie *core.ImportError
	var ve *core.ValidationError
	var ce *store.ConstraintError
	switch {
	case errors.As(err, &ie):
		return ie.Detail
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &ce):
		return ce.Error()
	case errors.Is(err, errNoFile), errors.Is(err, errFileTooLarge):
		return err.Error()
	default:
		return msg.Message
	}
}

// respondError logs the technical error server-side and writes a JSON error
// response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "5")
	}

	writeJSON(w, r, status, ErrorResponse{
		Detail: detailFor(err, msg),
		Code:   msg.Code,
		Action: msg.Action,
	})
}
