package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (e FinalizePasswordResetMessage) Type() string { return "account.password_reset_finalize" }

type FinalizePasswordResetResponse struct {
	Account *Account
}

// FinalizePasswordResetHandler consumes a reset token exactly once. The
// ledger insert-if-absent arbitrates the check-then-act race: losing the
// insert aborts the transaction before the password write commits.
type FinalizePasswordResetHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *FinalizePasswordResetHandler) WithActivitySink(sink ActivitySink) *FinalizePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock, useful for tests.
func (h *FinalizePasswordResetHandler) WithClock(clock func() time.Time) *FinalizePasswordResetHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) (*FinalizePasswordResetResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) (*FinalizePasswordResetResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := ValidatePasswordPair(event.Password, event.ConfirmPassword); err != nil {
		return nil, err
	}

	resp := &FinalizePasswordResetResponse{}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		used, err := h.repo.UsedTokens().ExistsTx(ctx, tx, event.Token)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check replay ledger")
		}
		if used {
			return ErrTokenAlreadyUsed
		}

		account, err := h.repo.Accounts().GetByResetTokenTx(ctx, tx, event.Token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up reset token")
		}

		if expired, err := resetTokenExpired(account, h.now()); err != nil {
			return err
		} else if expired {
			return ErrTokenExpired
		}

		// the email rule needs the account, so it runs after the lookup
		if err := ValidatePasswordForEmail(account.Email, event.Password); err != nil {
			return err
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		// sole arbiter: whoever inserts first consumes the token
		inserted, err := h.repo.UsedTokens().InsertIfAbsentTx(ctx, tx, event.Token, h.now())
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record token in replay ledger")
		}
		if !inserted {
			return ErrTokenAlreadyUsed
		}

		if err := h.repo.Accounts().ConsumeResetTx(ctx, tx, account.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
		}

		account.PasswordHash = hash
		account.ResetToken = nil
		account.ResetRequestedAt = nil
		resp.Account = account
		return nil
	})

	if err != nil {
		return nil, passthroughRich(err, "failed to finalize password reset")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventPasswordResetSuccess,
		Actor:     ActorRef{ID: resp.Account.ID.String(), Type: "account"},
		AccountID: resp.Account.ID.String(),
	})

	return resp, nil
}
