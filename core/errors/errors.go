package errors

import (
	stdErrors "errors"
	"fmt"
)

type ErrorCode string

const (
	// Validation
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData ErrorCode = "INVALID_REQUEST_DATA"

	// Authorization
	ErrUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"
	ErrForbidden                  ErrorCode = "FORBIDDEN"

	// Lookup
	ErrNotFound ErrorCode = "NOT_FOUND"

	// Conflict
	ErrAlreadyExists     ErrorCode = "ALREADY_EXISTS"
	ErrCalendarInUse     ErrorCode = "CALENDAR_IN_USE"
	ErrIsDefaultCalendar ErrorCode = "IS_DEFAULT_CALENDAR"

	// Storage
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrCreateFailed   ErrorCode = "CREATE_FAILED"
	ErrGetFailed      ErrorCode = "GET_FAILED"
	ErrUpdateFailed   ErrorCode = "UPDATE_FAILED"
	ErrDeleteFailed   ErrorCode = "DELETE_FAILED"
	ErrTransient      ErrorCode = "TRANSIENT_ERROR"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether the code belongs to the conflict class.
func (c ErrorCode) IsConflict() bool {
	switch c {
	case ErrAlreadyExists, ErrCalendarInUse, ErrIsDefaultCalendar:
		return true
	}
	return false
}

// CodeOf returns the AppError code carried by err, or ErrInternalServer.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stdErrors.As(err, &appErr) && appErr != nil {
		return appErr.Code
	}
	return ErrInternalServer
}
