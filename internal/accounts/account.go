// Package accounts owns the account lifecycle: creation with credential
// validation, deletion, export and import with optional password protection,
// and the startup restore that rebuilds the provider registry.
package accounts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/systmms/dnsops/pkg/provider"
)

// Status is an account's lifecycle state.
type Status string

const (
	StatusActive Status = "active"
	StatusError  Status = "error"
)

// Account is the persisted metadata for one vendor account. The id is
// generated at creation and immutable; secrets never live here, they go
// through the CredentialStore keyed by the same id.
type Account struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Provider  provider.ProviderType `json:"provider"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
	Status    Status                `json:"status"`
	Error     string                `json:"error,omitempty"`
}

// CredentialStore persists raw credential maps keyed by account id. Values
// are encrypted at rest; how is up to the implementation.
type CredentialStore interface {
	Save(ctx context.Context, accountID string, creds map[string]string) error
	Load(ctx context.Context, accountID string) (map[string]string, error)
	Delete(ctx context.Context, accountID string) error
	LoadAll(ctx context.Context) (map[string]map[string]string, error)
}

// AccountStore persists account metadata. Listing metadata must never touch
// secrets.
type AccountStore interface {
	FindAll(ctx context.Context) ([]Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Save(ctx context.Context, account Account) error
	Delete(ctx context.Context, id string) error
	SaveAll(ctx context.Context, accounts []Account) error
	UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error
}

// ExportHeader describes an export file. Salt and Nonce are only present when
// Encrypted is true and the payload uses the header-carried encoding.
type ExportHeader struct {
	Version    uint32 `json:"version"`
	Encrypted  bool   `json:"encrypted"`
	Salt       string `json:"salt,omitempty"`
	Nonce      string `json:"nonce,omitempty"`
	ExportedAt string `json:"exportedAt"`
	AppVersion string `json:"appVersion"`
}

// ExportFile is the on-disk export format. Data is either a JSON array of
// ExportedAccount objects or, when encrypted, a single base64 ciphertext
// string.
type ExportFile struct {
	Header ExportHeader    `json:"header"`
	Data   json.RawMessage `json:"data"`
}

// ExportedAccount is the only place credentials and metadata travel together.
// The id is freshly minted at export time; source ids are never reused.
type ExportedAccount struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Provider    provider.ProviderType `json:"provider"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	Credentials map[string]string     `json:"credentials"`
}
