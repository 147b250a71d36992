// Package apperror defines the application's error taxonomy.
//
// Every layer below the handlers returns these errors (usually wrapped with
// %w so the chain survives). The handler layer is the only place that maps
// them to HTTP status codes. Two of them deserve a note:
//
//   - ErrUnauthorized is deliberately information-free. Wrong password,
//     unknown email, expired token, forged token — they all surface to the
//     client as the same generic failure, so an attacker can't use error
//     messages to enumerate accounts or probe tokens.
//   - ErrValidation carries per-field messages (see Fields) so the client
//     can highlight the exact inputs that failed.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidAttachment = errors.New("invalid attachment")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
)

// AppError is a domain error with a client-safe message.
//
// Err is one of the sentinel errors above — errors.Is(err, ErrConflict) etc.
// works through any number of %w wraps. Message is what the client may see;
// it must never contain SQL, file paths or other internals.
type AppError struct {
	Err     error             // sentinel category
	Message string            // client-safe description
	Fields  map[string]string // per-field messages, validation errors only
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports one invalid field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// ValidationFields reports a full set of per-field validation messages,
// as produced by the form validator.
func ValidationFields(fields map[string]string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "one or more fields are invalid",
		Fields:  fields,
	}
}

// InvalidAttachment rejects an uploaded file (wrong type, too large).
func InvalidAttachment(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidAttachment,
		Message: message,
	}
}

// Conflict reports a uniqueness violation. The message stays generic on
// purpose — "an account with this email already exists" is the most we
// reveal, and only where the endpoint semantics already imply it.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized is THE authentication failure. Callers must not customize
// the message per cause; wrong-password, unknown-email and bad-token
// responses have to stay byte-identical.
func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "authentication required",
	}
}

// Forbidden reports that the caller is authenticated but not allowed to
// touch this resource (e.g. editing another user's ad).
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// NotFound reports a missing resource by type and id.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}
