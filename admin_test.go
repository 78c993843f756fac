package accounts_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func staffActor() *accounts.Account {
	return &accounts.Account{
		ID:       uuid.New(),
		Email:    "admin@example.com",
		IsActive: true,
		IsStaff:  true,
	}
}

func TestAdminHandlerRequiresStaff(t *testing.T) {
	handler := accounts.NewAdminHandler(&MockRepositoryManager{}).WithLogger(testLogger{})

	cases := []struct {
		name  string
		actor *accounts.Account
	}{
		{"nil actor", nil},
		{"inactive staff", &accounts.Account{ID: uuid.New(), IsStaff: true}},
		{"active non staff", &accounts.Account{ID: uuid.New(), IsActive: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := handler.List(context.Background(), tc.actor)
			require.ErrorIs(t, err, accounts.ErrForbidden)

			_, err = handler.Get(context.Background(), tc.actor, uuid.NewString())
			require.ErrorIs(t, err, accounts.ErrForbidden)

			_, err = handler.Update(context.Background(), tc.actor, accounts.AdminUpdateMessage{})
			require.ErrorIs(t, err, accounts.ErrForbidden)

			err = handler.Delete(context.Background(), tc.actor, uuid.NewString())
			require.ErrorIs(t, err, accounts.ErrForbidden)
		})
	}
}

func TestAdminHandlerList(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}

	summaries := []accounts.AccountSummary{
		{ID: uuid.New(), Email: "a@example.com", IsActive: true},
		{ID: uuid.New(), Email: "b@example.com"},
	}

	repo.On("Accounts").Return(accts)
	accts.On("ListSummaries", mock.Anything).Return(summaries, nil).Once()

	handler := accounts.NewAdminHandler(repo).WithLogger(testLogger{})

	got, err := handler.List(context.Background(), staffActor())
	require.NoError(t, err)
	assert.Equal(t, summaries, got)
}

func TestAdminHandlerGet(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}

	account := &accounts.Account{
		ID:       uuid.New(),
		Email:    "member@example.com",
		IsActive: true,
	}

	repo.On("Accounts").Return(accts)
	accts.On("GetByID", mock.Anything, account.ID.String(), mock.Anything).
		Return(account, nil).Once()

	handler := accounts.NewAdminHandler(repo).WithLogger(testLogger{})

	summary, err := handler.Get(context.Background(), staffActor(), account.ID.String())
	require.NoError(t, err)
	assert.Equal(t, account.Email, summary.Email)
}

func TestAdminHandlerGetUnknownID(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}

	repo.On("Accounts").Return(accts)
	accts.On("GetByID", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, repository.NewRecordNotFound()).Once()

	handler := accounts.NewAdminHandler(repo).WithLogger(testLogger{})

	_, err := handler.Get(context.Background(), staffActor(), uuid.NewString())
	require.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestAdminHandlerUpdateTogglesFlags(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}
	sink := &MockActivitySink{}

	account := &accounts.Account{
		ID:       uuid.New(),
		Email:    "member@example.com",
		IsActive: true,
	}

	repo.On("Accounts").Return(accts)
	repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	accts.On("GetByIDTx", mock.Anything, mock.Anything, account.ID.String(), mock.Anything).
		Return(account, nil).Once()
	accts.On("UpdateTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			record := args.Get(2).(*accounts.Account)
			assert.False(t, record.IsActive)
			assert.True(t, record.IsStaff)
		}).
		Return(account, nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
		return evt.EventType == accounts.ActivityEventAdminUpdated
	})).Return(nil).Once()

	handler := accounts.NewAdminHandler(repo).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	deactivate := false
	promote := true

	summary, err := handler.Update(context.Background(), staffActor(), accounts.AdminUpdateMessage{
		ID:       account.ID.String(),
		IsActive: &deactivate,
		IsStaff:  &promote,
	})
	require.NoError(t, err)
	require.NotNil(t, summary)

	repo.AssertExpectations(t)
	accts.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestAdminHandlerUpdateLeavesNilFlagsUntouched(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}

	account := &accounts.Account{
		ID:       uuid.New(),
		Email:    "member@example.com",
		IsActive: true,
		IsStaff:  false,
	}

	repo.On("Accounts").Return(accts)
	repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	accts.On("GetByIDTx", mock.Anything, mock.Anything, account.ID.String(), mock.Anything).
		Return(account, nil).Once()
	accts.On("UpdateTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			record := args.Get(2).(*accounts.Account)
			assert.True(t, record.IsActive)
			assert.False(t, record.IsStaff)
		}).
		Return(account, nil).Once()

	handler := accounts.NewAdminHandler(repo).WithLogger(testLogger{})

	_, err := handler.Update(context.Background(), staffActor(), accounts.AdminUpdateMessage{
		ID: account.ID.String(),
	})
	require.NoError(t, err)
}

func TestAdminHandlerDelete(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}
	sink := &MockActivitySink{}

	id := uuid.New()

	repo.On("Accounts").Return(accts)
	accts.On("DeleteByID", mock.Anything, id).Return(nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
		return evt.EventType == accounts.ActivityEventAdminDeleted &&
			evt.AccountID == id.String()
	})).Return(nil).Once()

	handler := accounts.NewAdminHandler(repo).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	err := handler.Delete(context.Background(), staffActor(), id.String())
	require.NoError(t, err)

	accts.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestAdminHandlerDeleteMalformedID(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}

	repo.On("Accounts").Return(accts)

	handler := accounts.NewAdminHandler(repo).WithLogger(testLogger{})

	err := handler.Delete(context.Background(), staffActor(), "not-a-uuid")
	require.ErrorIs(t, err, accounts.ErrAccountNotFound)

	accts.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}
