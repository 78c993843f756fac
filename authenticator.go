package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// LoginResult is the session pair plus the public account projection.
type LoginResult struct {
	Tokens  *TokenPair     `json:"tokens"`
	Account AccountSummary `json:"account"`
}

// Auther authenticates credentials and gates session issuance on activation
// state. Logins against inactive accounts trigger an implicit verification
// resend that shares the verification controller's 60s cooldown, so repeated
// attempts cannot be used to spam codes.
type Auther struct {
	repo     RepositoryManager
	tokens   TokenService
	gateway  NotificationGateway
	activity ActivitySink
	logger   Logger
	cooldown Cooldown
	now      func() time.Time
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	tokens := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetExtendedTokenDuration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		repo:     repo,
		tokens:   tokens,
		gateway:  noopNotificationGateway{},
		activity: noopActivitySink{},
		logger:   defLogger{},
		cooldown: VerificationCooldown(),
		now:      time.Now,
	}
}

// WithLogger overrides the logger used by the authenticator.
func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithNotificationGateway sets the channel used for implicit verification
// resends.
func (s *Auther) WithNotificationGateway(gateway NotificationGateway) *Auther {
	s.gateway = normalizeNotificationGateway(gateway)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activity = normalizeActivitySink(sink)
	return s
}

// WithTokenService sets a custom token service.
func (s *Auther) WithTokenService(tokens TokenService) *Auther {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// WithClock injects a custom clock, useful for tests.
func (s *Auther) WithClock(clock func() time.Time) *Auther {
	if clock != nil {
		s.now = clock
		s.cooldown = s.cooldown.WithClock(clock)
	}
	return s
}

// TokenService returns the TokenService instance used by this authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies credentials and issues a session pair.
func (s *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
				"email": NormalizeEmail(email),
				"error": ErrAccountNotFound.Message,
			})
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during login")
	}

	if !account.IsActive {
		s.resendVerification(ctx, account)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, account.ID.String(), map[string]any{
			"error": ErrEmailNotVerified.Message,
		})
		return nil, ErrEmailNotVerified
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, account.ID.String(), map[string]any{
			"error": ErrMismatchedHashAndPassword.Message,
		})
		return nil, ErrMismatchedHashAndPassword
	}

	pair, err := s.tokens.GeneratePair(account)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, account.ID.String(), nil)

	return &LoginResult{
		Tokens:  pair,
		Account: account.Summary(),
	}, nil
}

// Refresh exchanges a refresh token for a fresh pair, re-checking that the
// account still exists and is active.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Accounts().GetByID(ctx, claims.AccountID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during refresh")
	}

	if !account.IsActive {
		return nil, ErrEmailNotVerified
	}

	pair, err := s.tokens.GeneratePair(account)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Tokens:  pair,
		Account: account.Summary(),
	}, nil
}

// AccountFromToken resolves an access token to its account record.
func (s *Auther) AccountFromToken(ctx context.Context, raw string) (*Account, error) {
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Accounts().GetByID(ctx, claims.AccountID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve session account")
	}

	return account, nil
}

// resendVerification re-issues a code for an inactive account, at most once
// per cooldown window. Denials are silent: the caller still gets
// ErrEmailNotVerified.
func (s *Auther) resendVerification(ctx context.Context, account *Account) {
	var code string

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// re-read so the cooldown decision and the timestamp write see the
		// same record; the snapshot from the login read may be stale
		current, err := s.repo.Accounts().GetByEmailTx(ctx, tx, account.Email)
		if err != nil {
			return err
		}

		if current.IsActive {
			return nil
		}

		allowed, err := s.cooldown.Allow(current)
		if err != nil {
			return err
		}
		if !allowed {
			return nil
		}

		if code, err = GenerateVerificationCode(); err != nil {
			return err
		}

		return s.repo.Accounts().SetVerificationTx(ctx, tx, current.ID, code, s.now())
	})

	if err != nil {
		s.logger.Warn("implicit verification resend failed: %v", err)
		return
	}

	if code == "" {
		return
	}

	subject, body := verificationMessage(code)
	dispatchNotification(ctx, s.gateway, s.logger, account.Email, subject, body)

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventVerificationSent,
		Actor:     ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID: account.ID.String(),
	})
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, accountID string, metadata map[string]any) {
	actor := ActorRef{Type: "unknown"}
	if accountID != "" {
		actor = ActorRef{ID: accountID, Type: "account"}
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		AccountID: accountID,
		Metadata:  metadata,
	})
}
