package accounts

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ResetTokenTTL is the window in which an issued reset token may be
// validated or consumed. Expiry is logical: nothing is stored, the check
// compares reset_requested_at against the clock.
var ResetTokenTTL = "1h"

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
}

func (e InitializePasswordResetMessage) Type() string { return "account.password_reset" }

// InitializePasswordResetResponse is a generic acknowledgement: it does not
// disclose whether the email belongs to an account.
type InitializePasswordResetResponse struct {
	Acknowledged bool
}

// InitializePasswordResetHandler issues reset tokens behind the 5m cooldown.
// A fresh token always overwrites any outstanding one, which revokes it.
//
// Anti-enumeration is partial by design: unknown emails get the generic
// acknowledgement, but the cooldown branch only exists for real accounts and
// is therefore timing-observable to a caller who already knows the account
// exists. Accepted risk, kept as-is.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	gateway  NotificationGateway
	activity ActivitySink
	logger   Logger
	cooldown Cooldown
	now      func() time.Time
	baseURL  string
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		gateway:  noopNotificationGateway{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		cooldown: ResetCooldown(),
		now:      time.Now,
		baseURL:  "/reset-password",
	}
}

// WithNotificationGateway sets the delivery channel for reset links.
func (h *InitializePasswordResetHandler) WithNotificationGateway(gateway NotificationGateway) *InitializePasswordResetHandler {
	h.gateway = normalizeNotificationGateway(gateway)
	return h
}

// WithActivitySink sets the sink used to emit reset request events.
func (h *InitializePasswordResetHandler) WithActivitySink(sink ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock, useful for tests.
func (h *InitializePasswordResetHandler) WithClock(clock func() time.Time) *InitializePasswordResetHandler {
	if clock != nil {
		h.now = clock
		h.cooldown = h.cooldown.WithClock(clock)
	}
	return h
}

// WithBaseURL sets the link prefix embedded in reset emails.
func (h *InitializePasswordResetHandler) WithBaseURL(baseURL string) *InitializePasswordResetHandler {
	if baseURL != "" {
		h.baseURL = baseURL
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) (*InitializePasswordResetResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) (*InitializePasswordResetResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var account *Account
	var token string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// generic acknowledgement, nothing to do
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
		}

		allowed, err := h.cooldown.Allow(record)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrRateLimited
		}

		// overwriting reset_token supersedes any outstanding token
		token = GenerateResetToken()
		if err := h.repo.Accounts().SetResetTokenTx(ctx, tx, record.ID, token, h.now()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
		}

		account = record
		return nil
	})

	if err != nil {
		return nil, passthroughRich(err, "failed to initialize password reset")
	}

	if account != nil {
		subject, body := resetMessage(fmt.Sprintf("%s?token=%s", h.baseURL, token))
		dispatchNotification(ctx, h.gateway, h.logger, account.Email, subject, body)

		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventResetRequested,
			Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
			AccountID: account.ID.String(),
		})
	}

	return &InitializePasswordResetResponse{Acknowledged: true}, nil
}
