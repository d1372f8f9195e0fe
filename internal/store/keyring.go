package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/systmms/dnsops/internal/accounts"
)

const keyringIndexEntry = "__index__"

// KeyringStore keeps credential maps in the OS keyring, one entry per
// account id. The keyring has no listing primitive, so an extra index entry
// tracks the known account ids for LoadAll.
type KeyringStore struct {
	mu      sync.Mutex
	service string
}

// NewKeyringStore creates a store under the given keyring service name.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Save(ctx context.Context, accountID string, creds map[string]string) error {
	payload, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("serialize credentials: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := keyring.Set(s.service, accountID, string(payload)); err != nil {
		return fmt.Errorf("keyring write: %w", err)
	}
	return s.updateIndex(func(ids map[string]bool) {
		ids[accountID] = true
	})
}

func (s *KeyringStore) Load(ctx context.Context, accountID string) (map[string]string, error) {
	payload, err := keyring.Get(s.service, accountID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, &accounts.AccountNotFoundError{ID: accountID}
	}
	if err != nil {
		return nil, fmt.Errorf("keyring read: %w", err)
	}

	var creds map[string]string
	if err := json.Unmarshal([]byte(payload), &creds); err != nil {
		return nil, fmt.Errorf("stored credentials malformed: %w", err)
	}
	return creds, nil
}

func (s *KeyringStore) Delete(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := keyring.Delete(s.service, accountID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return s.updateIndex(func(ids map[string]bool) {
		delete(ids, accountID)
	})
}

func (s *KeyringStore) LoadAll(ctx context.Context) (map[string]map[string]string, error) {
	s.mu.Lock()
	ids, err := s.readIndex()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	all := make(map[string]map[string]string, len(ids))
	for id := range ids {
		creds, err := s.Load(ctx, id)
		if err != nil {
			var notFound *accounts.AccountNotFoundError
			if errors.As(err, &notFound) {
				// Index entry outlived the credential entry; skip it.
				continue
			}
			return nil, err
		}
		all[id] = creds
	}
	return all, nil
}

// readIndex returns the known account ids. A missing index entry means an
// empty store. Callers hold s.mu.
func (s *KeyringStore) readIndex() (map[string]bool, error) {
	payload, err := keyring.Get(s.service, keyringIndexEntry)
	if errors.Is(err, keyring.ErrNotFound) {
		return make(map[string]bool), nil
	}
	if err != nil {
		return nil, fmt.Errorf("keyring index read: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(payload), &ids); err != nil {
		return nil, fmt.Errorf("keyring index malformed: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (s *KeyringStore) updateIndex(fn func(map[string]bool)) error {
	ids, err := s.readIndex()
	if err != nil {
		return err
	}
	fn(ids)

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	payload, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("serialize keyring index: %w", err)
	}
	if err := keyring.Set(s.service, keyringIndexEntry, string(payload)); err != nil {
		return fmt.Errorf("keyring index write: %w", err)
	}
	return nil
}
