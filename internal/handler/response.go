// Package handler contains the HTTP handlers. Handlers decode requests,
// call a service and encode the result; the rules live in the services.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/shared-calendar/internal/apperror"
)

// maxBodyBytes caps request bodies. Every payload in this API is small.
const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "insufficient_rights"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input field, when known
}

// errorStatus maps each failure kind to its HTTP status and wire name.
// Order matters only in that the first match wins.
var errorStatus = []struct {
	kind   error
	status int
	code   string
}{
	{apperror.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{apperror.ErrRevokedToken, http.StatusUnauthorized, "revoked_token"},
	{apperror.ErrWrongPassword, http.StatusUnauthorized, "wrong_password"},
	{apperror.ErrInvalidTag, http.StatusNotFound, "invalid_tag"},
	{apperror.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{apperror.ErrEventNotFound, http.StatusNotFound, "event_not_found"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrCalendarInactive, http.StatusGone, "calendar_inactive"},
	{apperror.ErrPrivateCalendar, http.StatusForbidden, "private_calendar"},
	{apperror.ErrInsufficientRights, http.StatusForbidden, "insufficient_rights"},
	{apperror.ErrWrongUser, http.StatusForbidden, "wrong_user"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrDuplicateTag, http.StatusConflict, "duplicate_tag"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError renders err. AppErrors keep their message; anything else is
// an internal failure and its details stay in the log.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, e := range errorStatus {
			if errors.Is(err, e.kind) {
				writeJSON(w, e.status, ErrorResponse{
					Error:   e.code,
					Message: appErr.Message,
					Field:   appErr.Field,
				})
				return
			}
		}
	}

	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a JSON body into dst. Unknown fields and trailing
// garbage are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}
	return nil
}
