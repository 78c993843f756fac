package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AdminUpdateMessage toggles the two directory flags. Nil fields are left
// untouched.
type AdminUpdateMessage struct {
	ID       string `json:"id"`
	IsActive *bool  `json:"is_active"`
	IsStaff  *bool  `json:"is_staff"`
}

func (e AdminUpdateMessage) Type() string { return "account.admin_update" }

// AdminHandler exposes the staff-gated directory operations. Every method
// takes the acting account explicitly.
type AdminHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

// NewAdminHandler creates a handler with sane defaults.
func NewAdminHandler(repo RepositoryManager) *AdminHandler {
	return &AdminHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit admin events.
func (h *AdminHandler) WithActivitySink(sink ActivitySink) *AdminHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *AdminHandler) WithLogger(logger Logger) *AdminHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// List returns every account summary in creation order.
func (h *AdminHandler) List(ctx context.Context, actor *Account) ([]AccountSummary, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	summaries, err := h.repo.Accounts().ListSummaries(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list accounts")
	}

	return summaries, nil
}

// Get returns a single account summary by id.
func (h *AdminHandler) Get(ctx context.Context, actor *Account, id string) (*AccountSummary, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	account, err := h.repo.Accounts().GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	summary := account.Summary()
	return &summary, nil
}

// Update toggles the is_active / is_staff flags.
func (h *AdminHandler) Update(ctx context.Context, actor *Account, event AdminUpdateMessage) (*AccountSummary, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	var summary AccountSummary

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByIDTx(ctx, tx, event.ID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
		}

		if event.IsActive != nil {
			account.IsActive = *event.IsActive
		}
		if event.IsStaff != nil {
			account.IsStaff = *event.IsStaff
		}

		account, err = h.repo.Accounts().UpdateTx(ctx, tx, account, repository.UpdateByID(account.ID.String()))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account flags")
		}

		summary = account.Summary()
		return nil
	})

	if err != nil {
		return nil, passthroughRich(err, "admin update transaction failed")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventAdminUpdated,
		Actor:     ActorRef{ID: actor.ID.String(), Type: "staff"},
		AccountID: summary.ID.String(),
	})

	return &summary, nil
}

// Delete removes an account from the directory.
func (h *AdminHandler) Delete(ctx context.Context, actor *Account, id string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrAccountNotFound
	}

	if err := h.repo.Accounts().DeleteByID(ctx, parsed); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete account")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventAdminDeleted,
		Actor:     ActorRef{ID: actor.ID.String(), Type: "staff"},
		AccountID: id,
	})

	return nil
}

func requireStaff(actor *Account) error {
	if actor == nil || !actor.IsActive || !actor.IsStaff {
		return ErrForbidden
	}
	return nil
}
