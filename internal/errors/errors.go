package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeInvalidCredentials indicates the username/password pair did not
	// authenticate. Deliberately covers both unknown-user and wrong-password so
	// callers cannot enumerate usernames.
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	// ErrCodeStorage indicates the credential store or another backing service failed.
	ErrCodeStorage ErrorCode = "storage"

	// ErrCodeTokenMalformed indicates a token that cannot be parsed into claims.
	ErrCodeTokenMalformed ErrorCode = "token_malformed"
	// ErrCodeTokenSignature indicates a tampered or foreign token signature.
	ErrCodeTokenSignature ErrorCode = "token_invalid_signature"
	// ErrCodeTokenExpired indicates a well-signed token past its validity window.
	ErrCodeTokenExpired ErrorCode = "token_expired"
	// ErrCodeSigning indicates token issuance failed, usually a missing or
	// misconfigured signing secret. Fatal to the login attempt.
	ErrCodeSigning ErrorCode = "signing"

	// ErrCodeInsufficientRole indicates an authenticated principal whose role
	// is not permitted for the requested route.
	ErrCodeInsufficientRole ErrorCode = "insufficient_role"
	// ErrCodeProgramAccessDenied indicates a program-scope check failed.
	ErrCodeProgramAccessDenied ErrorCode = "program_access_denied"

	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// InvalidCredentials creates the single generic credential failure. The message
// is fixed so handlers cannot accidentally leak which field was wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:    ErrCodeInvalidCredentials,
		Message: "invalid username or password",
	}
}

// Storage wraps an infrastructure failure from the credential store.
func Storage(err error) *AppError {
	return &AppError{
		Code:    ErrCodeStorage,
		Message: "credential store unavailable",
		Cause:   err,
	}
}

// TokenMalformed creates a malformed-token error.
func TokenMalformed(err error) *AppError {
	return &AppError{
		Code:    ErrCodeTokenMalformed,
		Message: "token cannot be parsed",
		Cause:   err,
	}
}

// TokenSignature creates an invalid-signature token error.
func TokenSignature(err error) *AppError {
	return &AppError{
		Code:    ErrCodeTokenSignature,
		Message: "token signature is invalid",
		Cause:   err,
	}
}

// TokenExpired creates an expired-token error.
func TokenExpired(err error) *AppError {
	return &AppError{
		Code:    ErrCodeTokenExpired,
		Message: "token has expired",
		Cause:   err,
	}
}

// Signing wraps a token issuance failure.
func Signing(err error) *AppError {
	return &AppError{
		Code:    ErrCodeSigning,
		Message: "token signing failed",
		Cause:   err,
	}
}

// InsufficientRole creates a role-policy authorization error.
func InsufficientRole(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientRole,
		Message: message,
	}
}

// ProgramAccessDenied creates a program-scope authorization error.
func ProgramAccessDenied(message string) *AppError {
	return &AppError{
		Code:    ErrCodeProgramAccessDenied,
		Message: message,
	}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsInvalidCredentials checks if an error is an InvalidCredentials error.
func IsInvalidCredentials(err error) bool {
	return isCode(err, ErrCodeInvalidCredentials)
}

// IsStorage checks if an error is a Storage error.
func IsStorage(err error) bool {
	return isCode(err, ErrCodeStorage)
}

// IsTokenError checks if an error is any of the token verification failures.
func IsTokenError(err error) bool {
	return isCode(err, ErrCodeTokenMalformed) ||
		isCode(err, ErrCodeTokenSignature) ||
		isCode(err, ErrCodeTokenExpired)
}

// IsTokenExpired checks if an error is an expired-token error.
func IsTokenExpired(err error) bool {
	return isCode(err, ErrCodeTokenExpired)
}

// IsSigning checks if an error is a Signing error.
func IsSigning(err error) bool {
	return isCode(err, ErrCodeSigning)
}

// IsInsufficientRole checks if an error is an InsufficientRole error.
func IsInsufficientRole(err error) bool {
	return isCode(err, ErrCodeInsufficientRole)
}

// IsProgramAccessDenied checks if an error is a ProgramAccessDenied error.
func IsProgramAccessDenied(err error) bool {
	return isCode(err, ErrCodeProgramAccessDenied)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
