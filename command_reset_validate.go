package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ValidateResetTokenMessage struct {
	Token string `json:"token"`
}

func (e ValidateResetTokenMessage) Type() string { return "account.validate_reset_token" }

type ValidateResetTokenResponse struct {
	Valid bool
	Email string
}

// ValidateResetTokenHandler checks a token without consuming it. Consumed
// and superseded tokens no longer hang off any account and report not found.
type ValidateResetTokenHandler struct {
	repo   RepositoryManager
	logger Logger
	now    func() time.Time
}

// NewValidateResetTokenHandler creates a handler with sane defaults.
func NewValidateResetTokenHandler(repo RepositoryManager) *ValidateResetTokenHandler {
	return &ValidateResetTokenHandler{
		repo:   repo,
		logger: defLogger{},
		now:    time.Now,
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ValidateResetTokenHandler) WithLogger(logger Logger) *ValidateResetTokenHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock, useful for tests.
func (h *ValidateResetTokenHandler) WithClock(clock func() time.Time) *ValidateResetTokenHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ValidateResetTokenHandler) Execute(ctx context.Context, event ValidateResetTokenMessage) (*ValidateResetTokenResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during reset token validation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ValidateResetTokenHandler) execute(ctx context.Context, event ValidateResetTokenMessage) (*ValidateResetTokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.repo.Accounts().GetByResetToken(ctx, event.Token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up reset token")
	}

	if expired, err := h.tokenExpired(account); err != nil {
		return nil, err
	} else if expired {
		return nil, ErrTokenExpired
	}

	return &ValidateResetTokenResponse{
		Valid: true,
		Email: account.Email,
	}, nil
}

func (h *ValidateResetTokenHandler) tokenExpired(account *Account) (bool, error) {
	return resetTokenExpired(account, h.now())
}

// resetTokenExpired treats a still-present token as dead once the TTL has
// elapsed since reset_requested_at. A missing timestamp counts as expired.
func resetTokenExpired(account *Account, now time.Time) (bool, error) {
	if account.ResetRequestedAt == nil {
		return true, nil
	}

	within, err := isWithinThresholdPeriodAt(*account.ResetRequestedAt, ResetTokenTTL, now)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token expiration period")
	}

	return !within, nil
}
