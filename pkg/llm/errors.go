// Error types and handling
package llm

import "errors"

// Error types. Every error returned by this module is one of these two.
const (
	// ErrorTypeClient covers setup, configuration and per-call failures
	ErrorTypeClient = "client_error"
	// ErrorTypeAuthentication is returned only when credentials cannot be resolved
	ErrorTypeAuthentication = "authentication_error"
)

// Error codes carried in Error.Code
const (
	CodeAWSConfig       = "aws_config_error"
	CodeNoCredentials   = "no_credentials"
	CodeClientSetup     = "client_setup_error"
	CodeAccessDenied    = "access_denied"
	CodeModelNotFound   = "model_not_found"
	CodeThrottled       = "throttled"
	CodeServiceError    = "service_error"
	CodeUnexpectedError = "unexpected_error"
	CodeInvalidRequest  = "invalid_request"
)

// Error represents a standardized client error. Message is self-contained and
// meant to be shown to a human as-is.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	StatusCode int    `json:"status_code,omitempty"`

	// Err is the underlying cause, if any
	Err error `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewClientError creates an error of type ErrorTypeClient
func NewClientError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Type:    ErrorTypeClient,
		Err:     cause,
	}
}

// NewAuthenticationError creates an error of type ErrorTypeAuthentication
func NewAuthenticationError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Type:    ErrorTypeAuthentication,
		Err:     cause,
	}
}

// IsClientError reports whether err wraps an *Error of type ErrorTypeClient
func IsClientError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrorTypeClient
}

// IsAuthenticationError reports whether err wraps an *Error of type ErrorTypeAuthentication
func IsAuthenticationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrorTypeAuthentication
}

// ErrorCode returns the Code of the *Error wrapped by err, or "" if there is none
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
