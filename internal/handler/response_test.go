package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/shared-calendar/internal/apperror"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{apperror.InvalidToken("bad"), http.StatusUnauthorized, "invalid_token"},
		{apperror.RevokedToken(), http.StatusUnauthorized, "revoked_token"},
		{apperror.WrongPassword(), http.StatusUnauthorized, "wrong_password"},
		{apperror.InvalidTag("x"), http.StatusNotFound, "invalid_tag"},
		{apperror.UserNotFound("x"), http.StatusNotFound, "user_not_found"},
		{apperror.EventNotFound("x"), http.StatusNotFound, "event_not_found"},
		{apperror.NotFound("user", "x"), http.StatusNotFound, "not_found"},
		{apperror.CalendarInactive("x"), http.StatusGone, "calendar_inactive"},
		{apperror.PrivateCalendar(), http.StatusForbidden, "private_calendar"},
		{apperror.InsufficientRights("no"), http.StatusForbidden, "insufficient_rights"},
		{apperror.WrongUser("no"), http.StatusForbidden, "wrong_user"},
		{apperror.Forbidden("no"), http.StatusForbidden, "forbidden"},
		{apperror.DuplicateTag("x"), http.StatusConflict, "duplicate_tag"},
		{apperror.Conflict("user", "x"), http.StatusConflict, "conflict"},
		{apperror.BadRequest("type", "no"), http.StatusBadRequest, "bad_request"},
		{apperror.ValidationFailed("title", "no"), http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("wrapped: %w", apperror.PrivateCalendar()), http.StatusForbidden, "private_calendar"},
		{errors.New("database exploded"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error)
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, errors.New("sqlite: disk I/O error at /var/lib/secret.db"))

	assert.NotContains(t, rr.Body.String(), "secret.db")
}
