package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/systmms/dnsops/internal/accounts"
	"github.com/systmms/dnsops/internal/crypto"
)

// FileStore persists everything in one JSON file. Credential values are
// encrypted with the fixed operator key before they reach disk. Writes go
// through a temp file and an atomic rename, so a crash mid-write leaves the
// previous state intact.
type FileStore struct {
	mu     sync.Mutex
	path   string
	cipher *crypto.KeyCipher
}

// fileData is the on-disk shape. Credentials maps account id to the
// encrypted JSON serialization of its credential map.
type fileData struct {
	Accounts    []accounts.Account `json:"accounts"`
	Credentials map[string]string  `json:"credentials"`
}

func NewFileStore(path string, cipher *crypto.KeyCipher) *FileStore {
	return &FileStore{path: path, cipher: cipher}
}

func (s *FileStore) Credentials() accounts.CredentialStore { return &fileCredentials{s} }
func (s *FileStore) Accounts() accounts.AccountStore       { return &fileAccounts{s} }

// load reads the current state. A missing file is an empty store, not an
// error.
func (s *FileStore) load() (*fileData, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileData{Credentials: make(map[string]string)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("store file corrupt: %w", err)
	}
	if data.Credentials == nil {
		data.Credentials = make(map[string]string)
	}
	return &data, nil
}

func (s *FileStore) write(data *fileData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize store file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".dnsops-*")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close store file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// mutate applies fn to the current state under the lock and writes the
// result back.
func (s *FileStore) mutate(fn func(*fileData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	return s.write(data)
}

type fileCredentials struct{ s *FileStore }

func (c *fileCredentials) Save(ctx context.Context, accountID string, creds map[string]string) error {
	encrypted, err := encryptCredentials(c.s.cipher, creds)
	if err != nil {
		return err
	}
	return c.s.mutate(func(data *fileData) error {
		data.Credentials[accountID] = encrypted
		return nil
	})
}

func (c *fileCredentials) Load(ctx context.Context, accountID string) (map[string]string, error) {
	c.s.mu.Lock()
	data, err := c.s.load()
	c.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	encrypted, ok := data.Credentials[accountID]
	if !ok {
		return nil, &accounts.AccountNotFoundError{ID: accountID}
	}
	return decryptCredentials(c.s.cipher, encrypted)
}

func (c *fileCredentials) Delete(ctx context.Context, accountID string) error {
	return c.s.mutate(func(data *fileData) error {
		delete(data.Credentials, accountID)
		return nil
	})
}

func (c *fileCredentials) LoadAll(ctx context.Context) (map[string]map[string]string, error) {
	c.s.mu.Lock()
	data, err := c.s.load()
	c.s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	all := make(map[string]map[string]string, len(data.Credentials))
	for id, encrypted := range data.Credentials {
		creds, err := decryptCredentials(c.s.cipher, encrypted)
		if err != nil {
			return nil, fmt.Errorf("credentials for account %s: %w", id, err)
		}
		all[id] = creds
	}
	return all, nil
}

type fileAccounts struct{ s *FileStore }

func (a *fileAccounts) FindAll(ctx context.Context) ([]accounts.Account, error) {
	a.s.mu.Lock()
	data, err := a.s.load()
	a.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return data.Accounts, nil
}

func (a *fileAccounts) FindByID(ctx context.Context, id string) (*accounts.Account, error) {
	a.s.mu.Lock()
	data, err := a.s.load()
	a.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, acct := range data.Accounts {
		if acct.ID == id {
			return &acct, nil
		}
	}
	return nil, nil
}

func (a *fileAccounts) Save(ctx context.Context, account accounts.Account) error {
	return a.s.mutate(func(data *fileData) error {
		for i, acct := range data.Accounts {
			if acct.ID == account.ID {
				data.Accounts[i] = account
				return nil
			}
		}
		data.Accounts = append(data.Accounts, account)
		return nil
	})
}

func (a *fileAccounts) Delete(ctx context.Context, id string) error {
	return a.s.mutate(func(data *fileData) error {
		for i, acct := range data.Accounts {
			if acct.ID == id {
				data.Accounts = append(data.Accounts[:i], data.Accounts[i+1:]...)
				return nil
			}
		}
		return &accounts.AccountNotFoundError{ID: id}
	})
}

func (a *fileAccounts) SaveAll(ctx context.Context, all []accounts.Account) error {
	return a.s.mutate(func(data *fileData) error {
		byID := make(map[string]int, len(data.Accounts))
		for i, acct := range data.Accounts {
			byID[acct.ID] = i
		}
		for _, account := range all {
			if i, ok := byID[account.ID]; ok {
				data.Accounts[i] = account
			} else {
				data.Accounts = append(data.Accounts, account)
			}
		}
		return nil
	})
}

func (a *fileAccounts) UpdateStatus(ctx context.Context, id string, status accounts.Status, errMsg string) error {
	return a.s.mutate(func(data *fileData) error {
		for i, acct := range data.Accounts {
			if acct.ID == id {
				data.Accounts[i].Status = status
				data.Accounts[i].Error = errMsg
				return nil
			}
		}
		return &accounts.AccountNotFoundError{ID: id}
	})
}
