package accounts_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestSentinelCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		textCode string
	}{
		{"duplicate email", accounts.ErrDuplicateEmail, goerrors.CategoryConflict, accounts.TextCodeDuplicateEmail},
		{"invalid code", accounts.ErrInvalidCode, goerrors.CategoryValidation, accounts.TextCodeInvalidCode},
		{"already verified", accounts.ErrAlreadyVerified, goerrors.CategoryConflict, accounts.TextCodeAlreadyVerified},
		{"not verified", accounts.ErrEmailNotVerified, goerrors.CategoryAuth, accounts.TextCodeNotVerified},
		{"rate limited", accounts.ErrRateLimited, goerrors.CategoryRateLimit, accounts.TextCodeRateLimited},
		{"token expired", accounts.ErrTokenExpired, goerrors.CategoryValidation, accounts.TextCodeTokenExpired},
		{"token already used", accounts.ErrTokenAlreadyUsed, goerrors.CategoryConflict, accounts.TextCodeTokenAlreadyUsed},
		{"invalid credentials", accounts.ErrMismatchedHashAndPassword, goerrors.CategoryAuth, accounts.TextCodeInvalidCreds},
		{"forbidden", accounts.ErrForbidden, goerrors.CategoryAuthz, accounts.TextCodeForbidden},
		{"session expired", accounts.ErrSessionExpired, goerrors.CategoryAuth, accounts.TextCodeSessionExpired},
		{"session malformed", accounts.ErrSessionMalformed, goerrors.CategoryAuth, accounts.TextCodeSessionMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.textCode, tt.err.TextCode)
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, accounts.IsRateLimited(accounts.ErrRateLimited))
	assert.False(t, accounts.IsRateLimited(accounts.ErrDuplicateEmail))
	assert.False(t, accounts.IsRateLimited(errors.New("plain error")))
	assert.False(t, accounts.IsRateLimited(nil))
}
