package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("calendar", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "tg"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "InsufficientRights wraps ErrInsufficientRights",
			err:       InsufficientRights("you can only view it"),
			target:    ErrInsufficientRights,
			wantMatch: true,
		},
		{
			name:      "wrapped PrivateCalendar still matches",
			err:       fmt.Errorf("managing calendar: %w", PrivateCalendar()),
			target:    ErrPrivateCalendar,
			wantMatch: true,
		},
		{
			name:      "RevokedToken does NOT match ErrInvalidToken",
			err:       RevokedToken(),
			target:    ErrInvalidToken,
			wantMatch: false,
		},
		{
			name:      "InvalidTag does NOT match ErrNotFound",
			err:       InvalidTag("teg"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("calendar", "abc123"),
			wantMessage: "calendar not found with id abc123",
		},
		{
			name:        "InvalidTag names the tag",
			err:         InvalidTag("teg"),
			wantMessage: `calendar with tag "teg" does not exist`,
		},
		{
			name:        "DuplicateTag names the tag",
			err:         DuplicateTag("teg"),
			wantMessage: `calendar with tag "teg" already exists`,
		},
		{
			name:        "InsufficientRights uses custom message",
			err:         InsufficientRights("no rights"),
			wantMessage: "no rights",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := EventNotFound("abc123")
	if err.Unwrap() != ErrEventNotFound {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), ErrEventNotFound)
	}
}

func TestBadRequestField(t *testing.T) {
	err := BadRequest("type", "unknown calendar filter")

	if err.Field != "type" {
		t.Errorf("Field = %q, want %q", err.Field, "type")
	}
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("BadRequest() does not wrap ErrBadRequest")
	}
}
