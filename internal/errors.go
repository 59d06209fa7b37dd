package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal   ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeInvalidFieldName ErrorCode = "INVALID_FIELD_NAME"
	ErrCodeArrayField       ErrorCode = "ARRAY_FIELD"
	ErrCodeEmptyBody        ErrorCode = "EMPTY_BODY"

	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	ErrCodeCourseNotFound   ErrorCode = "COURSE_NOT_FOUND"
	ErrCodeInstanceNotFound ErrorCode = "INSTANCE_NOT_FOUND"

	ErrCodeGatewayUnreachable ErrorCode = "GATEWAY_UNREACHABLE"
	ErrCodeEmptyGatewayReply  ErrorCode = "EMPTY_GATEWAY_REPLY"

	ErrCodePaymentStatus      ErrorCode = "UNEXPECTED_PAYMENT_STATUS"
	ErrCodeCurrencyMismatch   ErrorCode = "CURRENCY_MISMATCH"
	ErrCodePaymentPending     ErrorCode = "PAYMENT_PENDING"
	ErrCodeDuplicateTxn       ErrorCode = "DUPLICATE_TRANSACTION"
	ErrCodeWrongBusiness      ErrorCode = "WRONG_BUSINESS"
	ErrCodeInsufficientAmount ErrorCode = "INSUFFICIENT_AMOUNT"
	ErrCodeEnrolmentFailed    ErrorCode = "ENROLMENT_FAILED"
	ErrCodeMessageSendFailed  ErrorCode = "MESSAGE_SEND_FAILED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewExternalError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

var (
	// ErrInvalidRequest is the only error an IPN caller ever sees on admission
	// failures; it carries no diagnostic detail on purpose.
	ErrInvalidRequest = NewValidationError("Invalid request", ErrCodeInvalidRequest)

	ErrUserNotFound     = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrCourseNotFound   = NewNotFoundError("course not found", ErrCodeCourseNotFound)
	ErrInstanceNotFound = NewNotFoundError("enrolment instance not found or disabled", ErrCodeInstanceNotFound)
	ErrDuplicateTxn     = NewConflictError("transaction already processed", ErrCodeDuplicateTxn)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
