package accounts_test

import (
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  padded@example.com  ", "padded@example.com"},
		{"already@example.com", "already@example.com"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, accounts.NormalizeEmail(tt.input))
	}
}

func TestEmailLocalPart(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"carlos@example.com", "carlos"},
		{"a.b+c@example.com", "a.b+c"},
		{"no-at-sign", "no-at-sign"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, accounts.EmailLocalPart(tt.input))
	}
}

func TestAccountSummary(t *testing.T) {
	account := &accounts.Account{
		ID:       uuid.New(),
		Email:    "user@example.com",
		IsActive: true,
		IsStaff:  false,
	}

	summary := account.Summary()
	assert.Equal(t, account.ID, summary.ID)
	assert.Equal(t, account.Email, summary.Email)
	assert.True(t, summary.IsActive)
	assert.False(t, summary.IsStaff)
}

func TestHasResetToken(t *testing.T) {
	account := &accounts.Account{}
	assert.False(t, account.HasResetToken())

	empty := ""
	account.ResetToken = &empty
	assert.False(t, account.HasResetToken())

	token := "outstanding"
	account.ResetToken = &token
	assert.True(t, account.HasResetToken())
}
