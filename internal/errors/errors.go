package errors

import (
	"errors"
)

// Kind classifies a failure so the transport layer can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error carries a Kind and a caller-facing message, optionally wrapping a cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an *Error without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap returns an *Error that keeps err reachable through errors.Is/As.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain.
// Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "Internal server error"
}

var (
	ErrTooManyLoginAttempts = New(KindTooManyRequests, "too many failed login attempts")
	ErrInvalidCredentials   = New(KindUnauthorized, "invalid credentials")
	ErrEmailAlreadyInUse    = New(KindConflict, "email already in use")
	ErrAccountNotFound      = New(KindNotFound, "User not found")
	ErrUserDoesNotExist     = New(KindForbidden, "User does not exist")
	ErrAccountNotConfirmed  = New(KindForbidden, "Please verify your email address before logging in")
	ErrConfirmationNotFound = New(KindNotFound, "No pending confirmation found for this link")
	ErrOldPasswordMismatch  = New(KindUnauthorized, "Password does not match with current password")
	ErrClientNotFound       = New(KindNotFound, "Client not found")
	ErrInvalidClientID      = New(KindValidation, "Invalid client id")
	ErrPasswordTooLong      = New(KindValidation, "Password must not exceed 72 bytes")
	ErrAdminRoleLocked      = New(KindValidation, "The admin role cannot be assigned or removed")

	ErrTokenMalformed = New(KindUnauthorized, "token is malformed")
	ErrTokenInvalid   = New(KindUnauthorized, "token is invalid")
	ErrTokenExpired   = New(KindUnauthorized, "token has expired")

	ErrMissingBearer        = New(KindUnauthorized, "missing or malformed bearer token")
	ErrAccessDenied         = New(KindForbidden, "access denied")
	ErrRefreshTokenNotFound = New(KindUnauthorized, "refresh token not found")
	ErrRefreshTokenRevoked  = New(KindForbidden, "refresh token revoked")
	ErrRefreshTokenRejected = New(KindForbidden, "refresh token rejected")
)
