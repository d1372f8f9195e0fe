// Package store provides the persistence backends behind the account and
// credential store contracts: a file-backed JSON store for desktop use, an OS
// keyring store for sandboxed environments, a Postgres store for server
// deployments, and an in-memory store for tests.
//
// Credential payloads written by the file and Postgres backends are encrypted
// with a fixed operator key before they touch the backend. The keyring
// backend writes plaintext payloads: the OS keyring is itself the encryption
// boundary there, and layering the fixed key on top would only move the
// secret problem around.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/systmms/dnsops/internal/crypto"
)

// encryptCredentials serializes and encrypts one credential map.
func encryptCredentials(cipher *crypto.KeyCipher, creds map[string]string) (string, error) {
	payload, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("serialize credentials: %w", err)
	}
	return cipher.EncryptString(string(payload))
}

// decryptCredentials reverses encryptCredentials.
func decryptCredentials(cipher *crypto.KeyCipher, encrypted string) (map[string]string, error) {
	plaintext, err := cipher.DecryptString(encrypted)
	if err != nil {
		return nil, err
	}
	var creds map[string]string
	if err := json.Unmarshal([]byte(plaintext), &creds); err != nil {
		return nil, fmt.Errorf("stored credentials malformed: %w", err)
	}
	return creds, nil
}
