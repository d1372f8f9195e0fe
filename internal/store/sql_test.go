package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dnsops/internal/accounts"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db, testCipher(t)), mock
}

func TestSQLCredentialsSaveAndLoad(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO account_credentials")).
		WithArgs("a1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Credentials().Save(ctx, "a1", map[string]string{"apiToken": "tok"}))

	encrypted, err := encryptCredentials(s.cipher, map[string]string{"apiToken": "tok"})
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM account_credentials WHERE account_id = $1")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(encrypted))

	got, err := s.Credentials().Load(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"apiToken": "tok"}, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLCredentialsLoadMissing(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM account_credentials")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err := s.Credentials().Load(context.Background(), "nope")
	var notFound *accounts.AccountNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLCredentialsLoadAll(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	e1, err := encryptCredentials(s.cipher, map[string]string{"apiToken": "t1"})
	require.NoError(t, err)
	e2, err := encryptCredentials(s.cipher, map[string]string{"secretKey": "k2"})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT account_id, payload FROM account_credentials")).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "payload"}).
			AddRow("a1", e1).AddRow("a2", e2))

	all, err := s.Credentials().LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", all["a1"]["apiToken"])
	assert.Equal(t, "k2", all["a2"]["secretKey"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAccountsSaveFindDelete(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	ctx := context.Background()
	account := testAccount("a1", "prod")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs(account.ID, account.Name, account.Provider,
			account.CreatedAt, account.UpdatedAt, account.Status, account.Error).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Accounts().Save(ctx, account))

	rows := sqlmock.NewRows([]string{"id", "name", "provider", "created_at", "updated_at", "status", "error"}).
		AddRow("a1", "prod", "cloudflare", account.CreatedAt, account.UpdatedAt, "active", "")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, provider, created_at, updated_at, status, error FROM accounts WHERE id = $1")).
		WithArgs("a1").
		WillReturnRows(rows)

	got, err := s.Accounts().FindByID(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "prod", got.Name)
	assert.Equal(t, accounts.StatusActive, got.Status)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1")).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Accounts().Delete(ctx, "a1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	var notFound *accounts.AccountNotFoundError
	require.ErrorAs(t, s.Accounts().Delete(ctx, "gone"), &notFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAccountsUpdateStatus(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET status = $2, error = $3 WHERE id = $1")).
		WithArgs("a1", accounts.StatusError, "credentials missing").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Accounts().UpdateStatus(context.Background(), "a1", accounts.StatusError, "credentials missing")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAccountsSaveAllTransactional(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	all := []accounts.Account{testAccount("a1", "prod"), testAccount("a2", "staging")}

	mock.ExpectBegin()
	for _, a := range all {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
			WithArgs(a.ID, a.Name, a.Provider, a.CreatedAt, a.UpdatedAt, a.Status, a.Error).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, s.Accounts().SaveAll(context.Background(), all))
	require.NoError(t, mock.ExpectationsWereMet())
}
