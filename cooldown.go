package accounts

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// VerificationCooldownPeriod is the minimum interval between verification
// code sends for a single account.
var VerificationCooldownPeriod = "60s"

// ResetCooldownPeriod is the minimum interval between password reset
// requests for a single account.
var ResetCooldownPeriod = "5m"

// Cooldown gates repeated sensitive requests on a per-account timestamp.
// It carries no state of its own: the timestamp lives on the Account record
// so the check and the update can commit in the same transaction.
type Cooldown struct {
	Period string
	LastAt func(*Account) *time.Time
	now    func() time.Time
}

// NewCooldown builds a cooldown window over the given timestamp accessor.
// Period uses time.ParseDuration syntax.
func NewCooldown(period string, lastAt func(*Account) *time.Time) Cooldown {
	return Cooldown{
		Period: period,
		LastAt: lastAt,
		now:    time.Now,
	}
}

// WithClock injects a custom clock, useful for tests.
func (c Cooldown) WithClock(clock func() time.Time) Cooldown {
	if clock != nil {
		c.now = clock
	}
	return c
}

// Allow reports whether the account may perform the guarded action now.
// Accounts with no recorded timestamp are always allowed.
func (c Cooldown) Allow(account *Account) (bool, error) {
	if account == nil || c.LastAt == nil {
		return true, nil
	}

	last := c.LastAt(account)
	if last == nil {
		return true, nil
	}

	clock := c.now
	if clock == nil {
		clock = time.Now
	}

	within, err := isWithinThresholdPeriodAt(*last, c.Period, clock())
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "invalid cooldown period").
			WithMetadata(map[string]any{"period": c.Period})
	}

	return !within, nil
}

// VerificationCooldown is the 60s window keyed on verification_sent_at. It is
// shared by registration resends, explicit resends, and the implicit resend
// triggered by logins against inactive accounts.
func VerificationCooldown() Cooldown {
	return NewCooldown(VerificationCooldownPeriod, func(a *Account) *time.Time {
		return a.VerificationSentAt
	})
}

// ResetCooldown is the 5m window keyed on reset_requested_at.
func ResetCooldown() Cooldown {
	return NewCooldown(ResetCooldownPeriod, func(a *Account) *time.Time {
		return a.ResetRequestedAt
	})
}
