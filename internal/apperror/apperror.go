// Package apperror defines the typed failures returned by the service layer.
//
// Every failure is an *AppError wrapping one sentinel. Callers branch on the
// sentinel with errors.Is and read the human-readable text from Message, so
// two failures of the same kind can carry different messages (for example
// the several flavours of ErrInsufficientRights).
package apperror

import (
	"errors"
	"fmt"
)

// Generic kinds shared by every layer.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// Access-control kinds.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrRevokedToken       = errors.New("revoked token")
	ErrInvalidTag         = errors.New("invalid tag")
	ErrCalendarInactive   = errors.New("calendar inactive")
	ErrPrivateCalendar    = errors.New("private calendar")
	ErrDuplicateTag       = errors.New("duplicate tag")
	ErrInsufficientRights = errors.New("insufficient rights")
	ErrUserNotFound       = errors.New("user not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrWrongUser          = errors.New("wrong user")
	ErrWrongPassword      = errors.New("wrong password")
	ErrBadRequest         = errors.New("bad request")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// New builds an AppError of the given kind. Use it for the access-control
// kinds, whose messages depend on the exact rule that was violated.
func New(kind error, message string) *AppError {
	return &AppError{
		Err:     kind,
		Message: message,
	}
}

func InvalidToken(message string) *AppError {
	return New(ErrInvalidToken, message)
}

func RevokedToken() *AppError {
	return New(ErrRevokedToken, "user's token has already been revoked")
}

func InvalidTag(tag string) *AppError {
	return New(ErrInvalidTag, fmt.Sprintf("calendar with tag %q does not exist", tag))
}

func CalendarInactive(tag string) *AppError {
	return New(ErrCalendarInactive, fmt.Sprintf("calendar %q is not active", tag))
}

func PrivateCalendar() *AppError {
	return New(ErrPrivateCalendar, "this calendar is private, you can't interact with it")
}

func DuplicateTag(tag string) *AppError {
	return New(ErrDuplicateTag, fmt.Sprintf("calendar with tag %q already exists", tag))
}

func InsufficientRights(message string) *AppError {
	return New(ErrInsufficientRights, message)
}

func UserNotFound(tg string) *AppError {
	return New(ErrUserNotFound, fmt.Sprintf("user with tg %q not found", tg))
}

func EventNotFound(id string) *AppError {
	return New(ErrEventNotFound, fmt.Sprintf("no event with id %s exists", id))
}

func WrongUser(message string) *AppError {
	return New(ErrWrongUser, message)
}

func WrongPassword() *AppError {
	return New(ErrWrongPassword, "password does not match")
}

// BadRequest is used for unrecognised enum values (filter types, roles,
// sort fields) coming from the caller.
func BadRequest(field, message string) *AppError {
	return &AppError{
		Err:     ErrBadRequest,
		Message: message,
		Field:   field,
	}
}
