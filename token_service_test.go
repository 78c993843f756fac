package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *accounts.TokenServiceImpl {
	return accounts.NewTokenService(
		[]byte("test-signing-key"),
		1,
		24,
		"accounts-test",
		jwt.ClaimStrings{"accounts-test"},
		testLogger{},
	)
}

func TestTokenServiceGeneratePairAndValidate(t *testing.T) {
	ts := newTestTokenService()

	account := &accounts.Account{
		ID:       uuid.New(),
		Email:    "user@example.com",
		IsActive: true,
		IsStaff:  true,
	}

	pair, err := ts.GeneratePair(account)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := ts.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), claims.AccountID())
	assert.Equal(t, accounts.TokenUseAccess, claims.Use())
	assert.True(t, claims.Staff)
	assert.Equal(t, "accounts-test", claims.Issuer)

	refresh, err := ts.ValidateRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, accounts.TokenUseRefresh, refresh.Use())
	assert.True(t, refresh.Expires().After(claims.Expires()))
}

func TestTokenServiceValidateExpiredToken(t *testing.T) {
	ts := newTestTokenService().
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	account := &accounts.Account{ID: uuid.New(), IsActive: true}

	pair, err := ts.GeneratePair(account)
	require.NoError(t, err)

	_, err = ts.Validate(pair.AccessToken)
	require.ErrorIs(t, err, accounts.ErrSessionExpired)
}

func TestTokenServiceValidateWrongKey(t *testing.T) {
	ts := newTestTokenService()

	account := &accounts.Account{ID: uuid.New(), IsActive: true}

	pair, err := ts.GeneratePair(account)
	require.NoError(t, err)

	other := accounts.NewTokenService(
		[]byte("another-key"),
		1,
		24,
		"accounts-test",
		jwt.ClaimStrings{"accounts-test"},
		testLogger{},
	)

	_, err = other.Validate(pair.AccessToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, accounts.ErrSessionExpired)
}

func TestTokenServiceValidateGarbage(t *testing.T) {
	ts := newTestTokenService()

	_, err := ts.Validate("not-a-token")
	require.Error(t, err)
}

func TestTokenServiceValidateRefreshRejectsAccessUse(t *testing.T) {
	ts := newTestTokenService()

	account := &accounts.Account{ID: uuid.New(), IsActive: true}

	pair, err := ts.GeneratePair(account)
	require.NoError(t, err)

	_, err = ts.ValidateRefresh(pair.AccessToken)
	require.ErrorIs(t, err, accounts.ErrSessionMalformed)
}

func TestTokenServiceRejectsNilAccount(t *testing.T) {
	ts := newTestTokenService()

	_, err := ts.GeneratePair(nil)
	require.Error(t, err)
}
