package accounts

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateEmail   = "EMAIL_ALREADY_REGISTERED"
	TextCodeInvalidCode      = "INVALID_VERIFICATION_CODE"
	TextCodeAlreadyVerified  = "ALREADY_VERIFIED"
	TextCodeNotVerified      = "EMAIL_NOT_VERIFIED"
	TextCodeRateLimited      = "RATE_LIMITED"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenAlreadyUsed = "TOKEN_ALREADY_USED"
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeForbidden        = "STAFF_ONLY"
	TextCodePasswordPolicy   = "PASSWORD_POLICY"
	TextCodeSessionExpired   = "SESSION_EXPIRED"
	TextCodeSessionMalformed = "SESSION_MALFORMED"
)

// ErrAccountNotFound is returned when no account matches the given
// email, id, or reset token.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrDuplicateEmail is returned when registering an email held by an
// already-active account. Inactive holders are routed into the resend path
// instead.
var ErrDuplicateEmail = errors.New("email is already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrInvalidCode is returned when a verification code does not match the
// stored value exactly.
var ErrInvalidCode = errors.New("invalid verification code", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidCode).
	WithCode(errors.CodeBadRequest)

// ErrAlreadyVerified is returned when requesting a code for an account that
// already completed activation.
var ErrAlreadyVerified = errors.New("account is already verified", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeConflict)

// ErrEmailNotVerified blocks session issuance for inactive accounts.
var ErrEmailNotVerified = errors.New("email address has not been verified", errors.CategoryAuth).
	WithTextCode(TextCodeNotVerified).
	WithCode(errors.CodeForbidden)

// ErrRateLimited signals the per-account cooldown window has not elapsed.
// The remaining time is intentionally not disclosed.
var ErrRateLimited = errors.New("please wait before requesting again", errors.CategoryRateLimit).
	WithTextCode(TextCodeRateLimited)

// ErrTokenExpired is returned when a reset token is validated or consumed
// past its window. Expiry is logical: the token is still stored but treated
// as dead.
var ErrTokenExpired = errors.New("password reset token has expired", errors.CategoryValidation).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeBadRequest)

// ErrTokenAlreadyUsed is returned when a reset token is found in the replay
// ledger.
var ErrTokenAlreadyUsed = errors.New("password reset token has already been used", errors.CategoryConflict).
	WithTextCode(TextCodeTokenAlreadyUsed).
	WithCode(errors.CodeConflict)

// ErrMismatchedHashAndPassword is the generic invalid-credentials error.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when a non-staff actor calls an admin operation.
var ErrForbidden = errors.New("staff privileges required", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrSessionExpired is returned for expired session tokens.
var ErrSessionExpired = errors.New("session token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(errors.CodeUnauthorized)

// ErrSessionMalformed is returned for tokens that fail parsing or signature
// checks.
var ErrSessionMalformed = errors.New("session token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeSessionMalformed).
	WithCode(errors.CodeUnauthorized)

// IsRateLimited checks for cooldown errors.
func IsRateLimited(err error) bool {
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.Category == errors.CategoryRateLimit
	}
	return false
}

// passthroughRich returns rich errors unchanged and wraps anything else as an
// internal failure with the given message.
func passthroughRich(err error, msg string) error {
	if err == nil {
		return nil
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich
	}
	return errors.Wrap(err, errors.CategoryInternal, msg)
}
