// Package apperr defines the error taxonomy shared by the auth service layers
// and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindConflict
	KindNotFound
	KindProvider
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindProvider:
		return "provider"
	case KindUnavailable:
		return "unavailable"
	}
	return "internal"
}

// Error is a classified application error. Two errors match under errors.Is
// when their codes are equal, so sentinels below can be wrapped with context.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of e with a caller-facing message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	MissingField     = newErr(KindValidation, "missing_field", "name, email and password are required")
	WeakPassword     = newErr(KindValidation, "weak_password", "password must be at least 6 characters long")
	PasswordMismatch = newErr(KindValidation, "password_mismatch", "passwords do not match")
	InvalidRole      = newErr(KindValidation, "invalid_role", "invalid role")
	InvalidStatus    = newErr(KindValidation, "invalid_status", "invalid status")
	InvalidID        = newErr(KindValidation, "invalid_id", "invalid user id")
	MissingToken     = newErr(KindValidation, "missing_token", "access token is required")
	InvalidBody      = newErr(KindValidation, "invalid_body", "request body must be valid JSON")
	InvalidAvatar    = newErr(KindValidation, "invalid_avatar", "avatar must be a png, jpeg, gif or webp image of at most 2 MiB")

	DuplicateEmail = newErr(KindConflict, "duplicate_email", "user with this email already exists")
	EmailTaken     = newErr(KindConflict, "email_taken", "email already taken")

	InvalidCredentials = newErr(KindUnauthenticated, "invalid_credentials", "invalid email or password")
	Unauthenticated    = newErr(KindUnauthenticated, "unauthenticated", "access token required")
	InvalidToken       = newErr(KindUnauthenticated, "invalid_token", "invalid token")
	ExpiredToken       = newErr(KindUnauthenticated, "expired_token", "token has expired")
	RevokedToken       = newErr(KindUnauthenticated, "revoked_token", "token has been revoked")

	Forbidden       = newErr(KindForbidden, "forbidden", "insufficient role")
	AdminProtected  = newErr(KindForbidden, "admin_protected", "cannot delete admin users")
	AccountInactive = newErr(KindForbidden, "account_inactive", "account is inactive")

	NotFound = newErr(KindNotFound, "not_found", "user not found")

	ProviderError = newErr(KindProvider, "provider_error", "identity provider request failed")

	StorageUnavailable = newErr(KindUnavailable, "storage_unavailable", "avatar storage is not configured")

	Internal = newErr(KindInternal, "internal", "internal server error")
)

// KindOf reports the kind of err; unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps err onto a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindProvider:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Public returns the classified error safe to show a caller. Unclassified
// errors collapse to Internal so no details leak.
func Public(err error) *Error {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e
	}
	return Internal
}
