package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the directory record. The verification and reset fields are
// nullable on purpose: a verification code exists only while the account is
// inactive, and a reset token only between issuance and
// consumption/supersession.
type Account struct {
	bun.BaseModel      `bun:"table:accounts,alias:acc"`
	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email              string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash       string     `bun:"password_hash" json:"-"`
	IsActive           bool       `bun:"is_active" json:"is_active"`
	IsStaff            bool       `bun:"is_staff" json:"is_staff"`
	VerificationCode   *string    `bun:"verification_code,nullzero" json:"-"`
	VerificationSentAt *time.Time `bun:"verification_sent_at,nullzero" json:"-"`
	ResetToken         *string    `bun:"reset_token,nullzero,unique" json:"-"`
	ResetRequestedAt   *time.Time `bun:"reset_requested_at,nullzero" json:"-"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt          *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Summary projects the account into the shape returned by login and the
// admin listing endpoints.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:       a.ID,
		Email:    a.Email,
		IsActive: a.IsActive,
		IsStaff:  a.IsStaff,
	}
}

// HasResetToken reports whether the account holds an outstanding reset token.
func (a *Account) HasResetToken() bool {
	return a.ResetToken != nil && *a.ResetToken != ""
}

// AccountSummary is the public projection of an Account.
type AccountSummary struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	IsActive bool      `json:"is_active"`
	IsStaff  bool      `json:"is_staff"`
}

// UsedResetToken is the permanent replay guard for consumed reset tokens. It
// outlives the Account's own reset_token field, which is cleared on use.
type UsedResetToken struct {
	bun.BaseModel `bun:"table:used_reset_tokens,alias:urt"`
	Token         string    `bun:"token,pk" json:"token"`
	UsedAt        time.Time `bun:"used_at,notnull" json:"used_at"`
}

// NormalizeEmail lowercases and trims an address so uniqueness checks and
// lookups agree on casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailLocalPart returns the part before the @, used by the password policy.
func EmailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
