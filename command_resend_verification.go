package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ResendVerificationMessage struct {
	Email string `json:"email"`
}

func (e ResendVerificationMessage) Type() string { return "account.resend_verification" }

type ResendVerificationResponse struct {
	Account *Account
}

// ResendVerificationHandler re-issues a verification code behind the 60s
// cooldown. Issuing a new code invalidates the previous one.
type ResendVerificationHandler struct {
	repo     RepositoryManager
	gateway  NotificationGateway
	activity ActivitySink
	logger   Logger
	cooldown Cooldown
	now      func() time.Time
}

// NewResendVerificationHandler creates a handler with sane defaults.
func NewResendVerificationHandler(repo RepositoryManager) *ResendVerificationHandler {
	return &ResendVerificationHandler{
		repo:     repo,
		gateway:  noopNotificationGateway{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		cooldown: VerificationCooldown(),
		now:      time.Now,
	}
}

// WithNotificationGateway sets the delivery channel for verification codes.
func (h *ResendVerificationHandler) WithNotificationGateway(gateway NotificationGateway) *ResendVerificationHandler {
	h.gateway = normalizeNotificationGateway(gateway)
	return h
}

// WithActivitySink sets the sink used to emit resend events.
func (h *ResendVerificationHandler) WithActivitySink(sink ActivitySink) *ResendVerificationHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ResendVerificationHandler) WithLogger(logger Logger) *ResendVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock, useful for tests.
func (h *ResendVerificationHandler) WithClock(clock func() time.Time) *ResendVerificationHandler {
	if clock != nil {
		h.now = clock
		h.cooldown = h.cooldown.WithClock(clock)
	}
	return h
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) (*ResendVerificationResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) (*ResendVerificationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	resp := &ResendVerificationResponse{}
	var code string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for resend")
		}

		if account.IsActive {
			return ErrAlreadyVerified
		}

		allowed, err := h.cooldown.Allow(account)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrRateLimited
		}

		if code, err = GenerateVerificationCode(); err != nil {
			return err
		}

		if err := h.repo.Accounts().SetVerificationTx(ctx, tx, account.ID, code, h.now()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store new verification code")
		}

		resp.Account = account
		return nil
	})

	if err != nil {
		return nil, passthroughRich(err, "verification resend transaction failed")
	}

	subject, body := verificationMessage(code)
	dispatchNotification(ctx, h.gateway, h.logger, resp.Account.Email, subject, body)

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventVerificationSent,
		Actor:     ActorRef{ID: resp.Account.ID.String(), Type: "account"},
		AccountID: resp.Account.ID.String(),
	})

	return resp, nil
}
