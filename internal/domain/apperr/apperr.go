// Package apperr defines the error kinds every operation of the service can
// surface: validation failures, not-found-or-forbidden, missing or invalid
// authentication, and upstream failures. Each kind is a go-errors envelope
// carrying a category, an HTTP status and a stable text code.
package apperr

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes returned to callers.
const (
	CodeValidation             = "VALIDATION_FAILED"
	CodeNotFoundOrForbidden    = "NOT_FOUND_OR_FORBIDDEN"
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeUpstreamFailure        = "UPSTREAM_FAILURE"
)

// notFoundMessage is shared by every not-found and forbidden path so the two
// cannot be told apart by message.
const notFoundMessage = "resource not found"

// Validation reports a single rejected credential field.
func Validation(field, reason string) *goerrors.Error {
	return goerrors.NewValidation("invalid credential", goerrors.FieldError{
		Field:   field,
		Message: reason,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(CodeValidation).
		WithSeverity(goerrors.SeverityWarning)
}

// NotFoundOrForbidden reports that a credential or persona does not exist or
// is not accessible to the caller. The two cases are deliberately merged.
func NotFoundOrForbidden() *goerrors.Error {
	return goerrors.New(notFoundMessage, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(CodeNotFoundOrForbidden).
		WithSeverity(goerrors.SeverityInfo)
}

// AuthenticationRequired reports a user call without a usable bearer token.
func AuthenticationRequired(message string) *goerrors.Error {
	if message == "" {
		message = "authentication required"
	}
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(CodeAuthenticationRequired).
		WithSeverity(goerrors.SeverityWarning)
}

// Upstream wraps a store or collaborator failure. The cause is kept for logs
// only; Message is what callers see.
func Upstream(cause error, message string) *goerrors.Error {
	e := &goerrors.Error{}
	if goerrors.As(cause, &e) {
		return e
	}
	wrapped := goerrors.Wrap(cause, goerrors.CategoryExternal, message)
	if wrapped == nil {
		wrapped = goerrors.New(message, goerrors.CategoryExternal)
	}
	return wrapped.
		WithCode(http.StatusBadGateway).
		WithTextCode(CodeUpstreamFailure)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return hasTextCode(err, CodeValidation)
}

// IsNotFoundOrForbidden reports whether err is a NotFoundOrForbidden error.
func IsNotFoundOrForbidden(err error) bool {
	return hasTextCode(err, CodeNotFoundOrForbidden)
}

// IsAuthenticationRequired reports whether err is an AuthenticationRequired error.
func IsAuthenticationRequired(err error) bool {
	return hasTextCode(err, CodeAuthenticationRequired)
}

// IsUpstream reports whether err is an UpstreamFailure.
func IsUpstream(err error) bool {
	return hasTextCode(err, CodeUpstreamFailure)
}

// As extracts the go-errors envelope from err, if any.
func As(err error) (*goerrors.Error, bool) {
	var e *goerrors.Error
	if !goerrors.As(err, &e) {
		return nil, false
	}
	return e, true
}

func hasTextCode(err error, code string) bool {
	e, ok := As(err)
	return ok && e.TextCode == code
}
