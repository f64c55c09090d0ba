package services

import "errors"

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorStorage      ErrorCode = "storage"
)

// ServiceError carries a machine-dispatchable code alongside a client-facing
// message. The HTTP layer maps codes to status lines so the UI can tell
// "already submitted" apart from "bad input".
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error      { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error     { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error     { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error { return &ServiceError{Code: ErrorUnauthorized, Message: msg} }
func NewForbiddenError(msg string) error    { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewStorageError(msg string) error      { return &ServiceError{Code: ErrorStorage, Message: msg} }

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
