package errors

import (
	"errors"
)

const unexpectedMessage = "An unexpected error occurred"

var statusByType = map[string]int{
	ErrorTypeNotFound:          StatusNotFound,
	ErrorTypeInvalidRequest:    StatusBadRequest,
	ErrorTypeValidation:        StatusBadRequest,
	ErrorTypeConflict:          StatusConflict,
	ErrorTypeRateLimitExceeded: StatusTooManyRequests,
	ErrorTypeRequestTimeout:    StatusRequestTimeout,
	ErrorTypeBadGateway:        StatusBadGateway,
	ErrorTypeUnavailable:       StatusServiceUnavailable,
}

// HTTPStatusCode maps err to a response status. Anything unrecognised is a 500.
func HTTPStatusCode(err error) int {
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return StatusInternalServerError
}

// GetHumanReadableMessage returns the AppError message, or a generic one so internal error text never leaks.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return unexpectedMessage
}
