package accounts_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	// keep hashing fast in the suite
	accounts.BcryptCost = bcrypt.MinCost
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// testConfig implements accounts.Config
type testConfig struct{}

func (testConfig) GetSigningKey() string        { return "test-signing-key" }
func (testConfig) GetIssuer() string            { return "accounts-test" }
func (testConfig) GetAudience() []string        { return []string{"accounts-test"} }
func (testConfig) GetTokenExpiration() int      { return 1 }
func (testConfig) GetExtendedTokenDuration() int { return 24 }

// MockRepositoryManager implements accounts.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx runs the callback in-place when the expectation returns nil, and
// propagates the callback's error so controller error paths stay observable.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Accounts() accounts.Accounts {
	args := m.Called()
	return args.Get(0).(accounts.Accounts)
}

func (m *MockRepositoryManager) UsedTokens() accounts.UsedTokens {
	args := m.Called()
	return args.Get(0).(accounts.UsedTokens)
}

// MockAccounts implements accounts.Accounts. The embedded interface covers
// the repository methods the suite never touches.
type MockAccounts struct {
	mock.Mock
	accounts.Accounts
}

func accountArg(args mock.Arguments, i int) *accounts.Account {
	if v, ok := args.Get(i).(*accounts.Account); ok {
		return v
	}
	return nil
}

func (m *MockAccounts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, id, criteria)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockAccounts) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, tx, id, criteria)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.Account, criteria ...repository.InsertCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, tx, record, criteria)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockAccounts) UpdateTx(ctx context.Context, tx bun.IDB, record *accounts.Account, criteria ...repository.UpdateCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, tx, record, criteria)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockAccounts) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	args := m.Called(ctx, email)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockAccounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*accounts.Account, error) {
	args := m.Called(ctx, tx, email)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockAccounts) GetByResetToken(ctx context.Context, token string) (*accounts.Account, error) {
	args := m.Called(ctx, token)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockAccounts) GetByResetTokenTx(ctx context.Context, tx bun.IDB, token string) (*accounts.Account, error) {
	args := m.Called(ctx, tx, token)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockAccounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccounts) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	args := m.Called(ctx, tx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccounts) ListSummaries(ctx context.Context) ([]accounts.AccountSummary, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).([]accounts.AccountSummary); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) SetVerificationTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, sentAt time.Time) error {
	args := m.Called(ctx, tx, id, code, sentAt)
	return args.Error(0)
}

func (m *MockAccounts) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockAccounts) SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, requestedAt time.Time) error {
	args := m.Called(ctx, tx, id, token, requestedAt)
	return args.Error(0)
}

func (m *MockAccounts) ConsumeResetTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockAccounts) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockAccounts) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUsedTokens implements accounts.UsedTokens
type MockUsedTokens struct {
	mock.Mock
}

func (m *MockUsedTokens) InsertIfAbsent(ctx context.Context, token string, usedAt time.Time) (bool, error) {
	args := m.Called(ctx, token, usedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsedTokens) InsertIfAbsentTx(ctx context.Context, tx bun.IDB, token string, usedAt time.Time) (bool, error) {
	args := m.Called(ctx, tx, token, usedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsedTokens) Exists(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsedTokens) ExistsTx(ctx context.Context, tx bun.IDB, token string) (bool, error) {
	args := m.Called(ctx, tx, token)
	return args.Bool(0), args.Error(1)
}

// MockActivitySink implements accounts.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event accounts.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

// captureGateway records outbound notifications and optionally fails them.
type captureGateway struct {
	sent []sentMessage
	err  error
}

func (g *captureGateway) Send(_ context.Context, to, subject, body string) error {
	g.sent = append(g.sent, sentMessage{To: to, Subject: subject, Body: body})
	return g.err
}

// routerContext aliases the interface so embedding it does not collide with
// the Context() method below.
type routerContext = router.Context

// MockContext implements router.Context for controller tests. Only the
// methods the controller touches are backed by expectations.
type MockContext struct {
	mock.Mock
	routerContext
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}
