package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of gate failure.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"

	// Input errors: terminal for the current submission, safe for the visitor.
	ErrCodeMalformedSignature ErrorCode = "MALFORMED_SIGNATURE"
	ErrCodeRecoveryFailed     ErrorCode = "SIGNATURE_RECOVERY_FAILED"

	// Session errors: surfaced as a denial or an idempotent replay.
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeStaleSession    ErrorCode = "STALE_SESSION"

	// Oracle errors: decode failures are operator-facing misconfiguration,
	// the rest is transient.
	ErrCodeRPCUnavailable ErrorCode = "RPC_UNAVAILABLE"
	ErrCodeRPCTimeout     ErrorCode = "RPC_TIMEOUT"
	ErrCodeOracleDecode   ErrorCode = "ORACLE_DECODE_ERROR"

	// Issuance errors from the chat platform.
	ErrCodePlatformUnavailable ErrorCode = "PLATFORM_UNAVAILABLE"
	ErrCodePlatformRejected    ErrorCode = "PLATFORM_REJECTED"
)

// AppError is a typed application error carrying a gate error code.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the visitor can meaningfully resubmit
// without any operator intervention.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case ErrCodeRPCUnavailable, ErrCodeRPCTimeout, ErrCodePlatformUnavailable:
		return true
	}
	return false
}

// HTTPStatus maps the code to a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeBadRequest, ErrCodeMalformedSignature, ErrCodeRecoveryFailed:
		return http.StatusBadRequest
	case ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeStaleSession:
		return http.StatusConflict
	case ErrCodeRPCUnavailable, ErrCodeRPCTimeout, ErrCodePlatformUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates a typed application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err}
}
