package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterMessage struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	UseHashid       bool   `json:"-"`
}

func (e RegisterMessage) Type() string { return "account.register" }

// RegisterResponse reports the pending account. Resent is true when the
// email belonged to an existing inactive account and we re-issued its code
// instead of creating a duplicate.
type RegisterResponse struct {
	Account *Account
	Resent  bool
}

// RegisterHandler creates inactive accounts and dispatches the first
// verification code.
type RegisterHandler struct {
	repo     RepositoryManager
	gateway  NotificationGateway
	activity ActivitySink
	logger   Logger
	cooldown Cooldown
	now      func() time.Time
}

// NewRegisterHandler creates a handler with sane defaults.
func NewRegisterHandler(repo RepositoryManager) *RegisterHandler {
	return &RegisterHandler{
		repo:     repo,
		gateway:  noopNotificationGateway{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		cooldown: VerificationCooldown(),
		now:      time.Now,
	}
}

// WithNotificationGateway sets the delivery channel for verification codes.
func (h *RegisterHandler) WithNotificationGateway(gateway NotificationGateway) *RegisterHandler {
	h.gateway = normalizeNotificationGateway(gateway)
	return h
}

// WithActivitySink sets the sink used to emit registration events.
func (h *RegisterHandler) WithActivitySink(sink ActivitySink) *RegisterHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterHandler) WithLogger(logger Logger) *RegisterHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock, useful for tests.
func (h *RegisterHandler) WithClock(clock func() time.Time) *RegisterHandler {
	if clock != nil {
		h.now = clock
		h.cooldown = h.cooldown.WithClock(clock)
	}
	return h
}

func (h *RegisterHandler) Execute(ctx context.Context, event RegisterMessage) (*RegisterResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterHandler) execute(ctx context.Context, event RegisterMessage) (*RegisterResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)

	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	if err := ValidateNewPassword(email, event.Password, event.ConfirmPassword); err != nil {
		return nil, err
	}

	resp := &RegisterResponse{}
	var code string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Accounts().GetByEmailTx(ctx, tx, email)
		if err == nil {
			if existing.IsActive {
				return ErrDuplicateEmail
			}
			// inactive duplicate: re-issue the code instead of creating a
			// second record, gated by the shared cooldown
			allowed, err := h.cooldown.Allow(existing)
			if err != nil {
				return err
			}
			if !allowed {
				return ErrRateLimited
			}

			if code, err = GenerateVerificationCode(); err != nil {
				return err
			}

			if err := h.repo.Accounts().SetVerificationTx(ctx, tx, existing.ID, code, h.now()); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to refresh verification code")
			}

			resp.Account = existing
			resp.Resent = true
			return nil
		}

		if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		if code, err = GenerateVerificationCode(); err != nil {
			return err
		}

		now := h.now()
		account := &Account{
			Email:              email,
			PasswordHash:       hash,
			VerificationCode:   &code,
			VerificationSentAt: &now,
		}
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				account.ID = id
			}
		}

		if account, err = h.repo.Accounts().CreateTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		resp.Account = account
		return nil
	})

	if err != nil {
		return nil, passthroughRich(err, "registration transaction failed")
	}

	subject, body := verificationMessage(code)
	dispatchNotification(ctx, h.gateway, h.logger, resp.Account.Email, subject, body)

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventRegistered,
		Actor:     ActorRef{ID: resp.Account.ID.String(), Type: "account"},
		AccountID: resp.Account.ID.String(),
		Metadata:  map[string]any{"resent": resp.Resent},
	})

	return resp, nil
}
