package store

import (
	"context"
	"sync"

	"github.com/systmms/dnsops/internal/accounts"
)

// MemStore keeps everything in process memory. Used by tests and as a
// fixture for restore scenarios. Credentials() and Accounts() expose the two
// store facets over the same state.
type MemStore struct {
	mu       sync.RWMutex
	accounts map[string]accounts.Account
	creds    map[string]map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		accounts: make(map[string]accounts.Account),
		creds:    make(map[string]map[string]string),
	}
}

func (s *MemStore) Credentials() accounts.CredentialStore { return &memCredentials{s} }
func (s *MemStore) Accounts() accounts.AccountStore       { return &memAccounts{s} }

type memCredentials struct{ s *MemStore }

func (c *memCredentials) Save(ctx context.Context, accountID string, creds map[string]string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.creds[accountID] = copyMap(creds)
	return nil
}

func (c *memCredentials) Load(ctx context.Context, accountID string) (map[string]string, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	creds, ok := c.s.creds[accountID]
	if !ok {
		return nil, &accounts.AccountNotFoundError{ID: accountID}
	}
	return copyMap(creds), nil
}

func (c *memCredentials) Delete(ctx context.Context, accountID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	delete(c.s.creds, accountID)
	return nil
}

func (c *memCredentials) LoadAll(ctx context.Context) (map[string]map[string]string, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	all := make(map[string]map[string]string, len(c.s.creds))
	for id, creds := range c.s.creds {
		all[id] = copyMap(creds)
	}
	return all, nil
}

type memAccounts struct{ s *MemStore }

func (a *memAccounts) FindAll(ctx context.Context) ([]accounts.Account, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	all := make([]accounts.Account, 0, len(a.s.accounts))
	for _, acct := range a.s.accounts {
		all = append(all, acct)
	}
	return all, nil
}

func (a *memAccounts) FindByID(ctx context.Context, id string) (*accounts.Account, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	acct, ok := a.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &acct, nil
}

func (a *memAccounts) Save(ctx context.Context, account accounts.Account) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.accounts[account.ID] = account
	return nil
}

func (a *memAccounts) Delete(ctx context.Context, id string) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if _, ok := a.s.accounts[id]; !ok {
		return &accounts.AccountNotFoundError{ID: id}
	}
	delete(a.s.accounts, id)
	return nil
}

func (a *memAccounts) SaveAll(ctx context.Context, all []accounts.Account) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, acct := range all {
		a.s.accounts[acct.ID] = acct
	}
	return nil
}

func (a *memAccounts) UpdateStatus(ctx context.Context, id string, status accounts.Status, errMsg string) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	acct, ok := a.s.accounts[id]
	if !ok {
		return &accounts.AccountNotFoundError{ID: id}
	}
	acct.Status = status
	acct.Error = errMsg
	a.s.accounts[id] = acct
	return nil
}

func copyMap(m map[string]string) map[string]string {
	copied := make(map[string]string, len(m))
	for k, v := range m {
		copied[k] = v
	}
	return copied
}
