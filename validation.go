package accounts

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

var (
	reUpper   = regexp.MustCompile(`[A-Z]`)
	reLower   = regexp.MustCompile(`[a-z]`)
	reDigit   = regexp.MustCompile(`\d`)
	reSpecial = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// MinPasswordLength is the minimum accepted password length.
var MinPasswordLength = 8

// ValidateEmail checks the address is well formed.
func ValidateEmail(email string) error {
	err := validation.Validate(email, validation.Required, is.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid email address").
			WithMetadata(map[string]any{"field": "email"})
	}
	return nil
}

// ValidatePasswordPair enforces the password policy rules that do not depend
// on the account's email: length, character classes, and confirmation match.
func ValidatePasswordPair(password, confirm string) error {
	if password != confirm {
		return goerrors.New("passwords do not match", goerrors.CategoryValidation).
			WithTextCode(TextCodePasswordPolicy).
			WithMetadata(map[string]any{"field": "confirm_password"})
	}

	err := validation.Validate(password,
		validation.Required,
		validation.Length(MinPasswordLength, 0).Error("password must be at least 8 characters long"),
		validation.Match(reUpper).Error("password must contain at least one uppercase letter"),
		validation.Match(reLower).Error("password must contain at least one lowercase letter"),
		validation.Match(reDigit).Error("password must contain at least one number"),
		validation.Match(reSpecial).Error("password must contain at least one special character"),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "password does not meet the policy").
			WithTextCode(TextCodePasswordPolicy).
			WithMetadata(map[string]any{"field": "password"})
	}

	return nil
}

// ValidatePasswordForEmail rejects passwords containing the email local-part,
// case-insensitively.
func ValidatePasswordForEmail(email, password string) error {
	local := strings.ToLower(EmailLocalPart(NormalizeEmail(email)))
	if local != "" && strings.Contains(strings.ToLower(password), local) {
		return goerrors.New("password is too similar to the email", goerrors.CategoryValidation).
			WithTextCode(TextCodePasswordPolicy).
			WithMetadata(map[string]any{"field": "password"})
	}
	return nil
}

// ValidateNewPassword runs the full policy for a credential attached to the
// given email.
func ValidateNewPassword(email, password, confirm string) error {
	if err := ValidatePasswordPair(password, confirm); err != nil {
		return err
	}
	return ValidatePasswordForEmail(email, password)
}
