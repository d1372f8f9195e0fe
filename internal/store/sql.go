package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"

	"github.com/systmms/dnsops/internal/accounts"
	"github.com/systmms/dnsops/internal/crypto"
)

// SQLStore persists accounts and encrypted credential payloads in Postgres.
// Credentials live in their own table so metadata queries never touch
// secrets.
type SQLStore struct {
	db     *sql.DB
	cipher *crypto.KeyCipher
}

const sqlSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	provider   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS account_credentials (
	account_id TEXT PRIMARY KEY,
	payload    TEXT NOT NULL
);`

// OpenSQLStore connects to Postgres and ensures the schema exists.
func OpenSQLStore(ctx context.Context, dsn string, cipher *crypto.KeyCipher) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLStore{db: db, cipher: cipher}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an existing connection. Used by tests with sqlmock.
func NewSQLStore(db *sql.DB, cipher *crypto.KeyCipher) *SQLStore {
	return &SQLStore{db: db, cipher: cipher}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqlSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Credentials() accounts.CredentialStore { return &sqlCredentials{s} }
func (s *SQLStore) Accounts() accounts.AccountStore       { return &sqlAccounts{s} }

type sqlCredentials struct{ s *SQLStore }

func (c *sqlCredentials) Save(ctx context.Context, accountID string, creds map[string]string) error {
	encrypted, err := encryptCredentials(c.s.cipher, creds)
	if err != nil {
		return err
	}
	_, err = c.s.db.ExecContext(ctx, `
		INSERT INTO account_credentials (account_id, payload) VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE SET payload = EXCLUDED.payload`,
		accountID, encrypted)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (c *sqlCredentials) Load(ctx context.Context, accountID string) (map[string]string, error) {
	var encrypted string
	err := c.s.db.QueryRowContext(ctx,
		`SELECT payload FROM account_credentials WHERE account_id = $1`,
		accountID).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &accounts.AccountNotFoundError{ID: accountID}
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return decryptCredentials(c.s.cipher, encrypted)
}

func (c *sqlCredentials) Delete(ctx context.Context, accountID string) error {
	if _, err := c.s.db.ExecContext(ctx,
		`DELETE FROM account_credentials WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

func (c *sqlCredentials) LoadAll(ctx context.Context) (map[string]map[string]string, error) {
	rows, err := c.s.db.QueryContext(ctx,
		`SELECT account_id, payload FROM account_credentials`)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	defer rows.Close()

	all := make(map[string]map[string]string)
	for rows.Next() {
		var id, encrypted string
		if err := rows.Scan(&id, &encrypted); err != nil {
			return nil, fmt.Errorf("load credentials: %w", err)
		}
		creds, err := decryptCredentials(c.s.cipher, encrypted)
		if err != nil {
			return nil, fmt.Errorf("credentials for account %s: %w", id, err)
		}
		all[id] = creds
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return all, nil
}

type sqlAccounts struct{ s *SQLStore }

const accountColumns = `id, name, provider, created_at, updated_at, status, error`

func scanAccount(row interface{ Scan(...any) error }) (*accounts.Account, error) {
	var a accounts.Account
	err := row.Scan(&a.ID, &a.Name, &a.Provider, &a.CreatedAt, &a.UpdatedAt, &a.Status, &a.Error)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (as *sqlAccounts) FindAll(ctx context.Context) ([]accounts.Account, error) {
	rows, err := as.s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var all []accounts.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		all = append(all, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return all, nil
}

func (as *sqlAccounts) FindByID(ctx context.Context, id string) (*accounts.Account, error) {
	a, err := scanAccount(as.s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

func (as *sqlAccounts) Save(ctx context.Context, account accounts.Account) error {
	_, err := as.s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, provider, created_at, updated_at, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = EXCLUDED.updated_at,
			status = EXCLUDED.status,
			error = EXCLUDED.error`,
		account.ID, account.Name, account.Provider,
		account.CreatedAt, account.UpdatedAt, account.Status, account.Error)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (as *sqlAccounts) Delete(ctx context.Context, id string) error {
	result, err := as.s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &accounts.AccountNotFoundError{ID: id}
	}
	return nil
}

func (as *sqlAccounts) SaveAll(ctx context.Context, all []accounts.Account) error {
	tx, err := as.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	for _, account := range all {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, name, provider, created_at, updated_at, status, error)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				updated_at = EXCLUDED.updated_at,
				status = EXCLUDED.status,
				error = EXCLUDED.error`,
			account.ID, account.Name, account.Provider,
			account.CreatedAt, account.UpdatedAt, account.Status, account.Error); err != nil {
			tx.Rollback()
			return fmt.Errorf("save accounts: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

func (as *sqlAccounts) UpdateStatus(ctx context.Context, id string, status accounts.Status, errMsg string) error {
	result, err := as.s.db.ExecContext(ctx,
		`UPDATE accounts SET status = $2, error = $3 WHERE id = $1`,
		id, status, errMsg)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &accounts.AccountNotFoundError{ID: id}
	}
	return nil
}
