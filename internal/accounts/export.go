package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/systmms/dnsops/internal/crypto"
	"github.com/systmms/dnsops/internal/providers"
	"github.com/systmms/dnsops/pkg/provider"
)

// exportFileSchema gates the structural shape of an import before any field
// is interpreted. Payload contents are validated later, per account.
const exportFileSchema = `{
	"type": "object",
	"required": ["header", "data"],
	"properties": {
		"header": {
			"type": "object",
			"required": ["version", "encrypted", "exportedAt"],
			"properties": {
				"version":    {"type": "integer", "minimum": 1},
				"encrypted":  {"type": "boolean"},
				"salt":       {"type": "string"},
				"nonce":      {"type": "string"},
				"exportedAt": {"type": "string"},
				"appVersion": {"type": "string"}
			}
		},
		"data": {
			"oneOf": [
				{"type": "array"},
				{"type": "string"}
			]
		}
	}
}`

var exportSchema = gojsonschema.NewStringLoader(exportFileSchema)

// Export bundles the selected accounts with their credentials into an
// ExportFile. Every exported entry gets a freshly minted id so importing can
// never collide with source ids. A non-empty password encrypts the whole
// payload; the header then carries salt and nonce and data becomes the
// base64 ciphertext.
func (o *Orchestrator) Export(ctx context.Context, ids []string, password string) (*ExportFile, error) {
	if len(ids) == 0 {
		return nil, ErrNoAccountsSelected
	}

	entries := make([]ExportedAccount, 0, len(ids))
	for _, id := range ids {
		account, err := o.accounts.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if account == nil {
			o.logger.Warn("account %q skipped: not found", id)
			continue
		}
		credMap, err := o.creds.Load(ctx, id)
		if err != nil {
			o.logger.Warn("account %q skipped: credentials not loadable: %v", account.Name, err)
			continue
		}
		entries = append(entries, ExportedAccount{
			ID:          uuid.NewString(),
			Name:        account.Name,
			Provider:    account.Provider,
			CreatedAt:   account.CreatedAt,
			UpdatedAt:   account.UpdatedAt,
			Credentials: credMap,
		})
	}
	if len(entries) == 0 {
		return nil, ErrNoAccountsSelected
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("serialize export payload: %w", err)
	}

	file := &ExportFile{
		Header: ExportHeader{
			Version:    crypto.CurrentFileVersion,
			ExportedAt: o.now().Format(time.RFC3339),
			AppVersion: o.appVersion,
		},
	}

	if password == "" {
		file.Data = payload
	} else {
		blob, err := crypto.Encrypt(payload, password)
		if err != nil {
			return nil, err
		}
		file.Header.Encrypted = true
		file.Header.Salt = blob.Salt
		file.Header.Nonce = blob.Nonce
		data, err := json.Marshal(blob.Ciphertext)
		if err != nil {
			return nil, fmt.Errorf("serialize export payload: %w", err)
		}
		file.Data = data
	}

	o.metrics.IncAccountOp("export", true)
	o.logger.Info("exported %d account(s)", len(entries))
	return file, nil
}

// SuggestedExportFilename returns a timestamped default filename for an
// export.
func (o *Orchestrator) SuggestedExportFilename() string {
	return "dnsops-backup-" + o.now().Format("20060102-150405") + ".json"
}

// PreviewEntry is one account of an import preview. HasConflict means an
// existing account already carries the same name; ids are never compared
// because export always mints new ones.
type PreviewEntry struct {
	Name        string                `json:"name"`
	Provider    provider.ProviderType `json:"provider"`
	HasConflict bool                  `json:"hasConflict"`
}

// ImportPreview summarizes an export file without modifying any state.
type ImportPreview struct {
	Version      uint32         `json:"version"`
	Encrypted    bool           `json:"encrypted"`
	AccountCount int            `json:"accountCount"`
	Accounts     []PreviewEntry `json:"accounts,omitempty"`
}

// PreviewImport parses an export file and reports what an import would do.
// An encrypted file without a password is reported as encrypted with a zero
// count; decryption is never attempted without a password.
func (o *Orchestrator) PreviewImport(ctx context.Context, raw []byte, password string) (*ImportPreview, error) {
	file, err := parseExportFile(raw)
	if err != nil {
		return nil, err
	}

	preview := &ImportPreview{
		Version:   file.Header.Version,
		Encrypted: file.Header.Encrypted,
	}
	if file.Header.Encrypted && password == "" {
		return preview, nil
	}

	entries, err := decodePayload(file, password)
	if err != nil {
		return nil, err
	}

	existing, err := o.accounts.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(existing))
	for _, a := range existing {
		names[a.Name] = true
	}

	preview.AccountCount = len(entries)
	preview.Accounts = make([]PreviewEntry, 0, len(entries))
	for _, e := range entries {
		preview.Accounts = append(preview.Accounts, PreviewEntry{
			Name:        e.Name,
			Provider:    e.Provider,
			HasConflict: names[e.Name],
		})
	}
	return preview, nil
}

// ImportFailure names one account that could not be imported and why.
type ImportFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a batch import.
type ImportResult struct {
	SuccessCount int             `json:"successCount"`
	Failures     []ImportFailure `json:"failures,omitempty"`
}

// Import brings every account of an export file into this installation. Each
// entry is processed independently: one bad entry is recorded as a failure
// and the rest continue. No network validation happens here; import mirrors
// restore, not create.
func (o *Orchestrator) Import(ctx context.Context, raw []byte, password string) (*ImportResult, error) {
	file, err := parseExportFile(raw)
	if err != nil {
		return nil, err
	}
	if file.Header.Encrypted && password == "" {
		return nil, &ValidationError{Detail: "export file is encrypted, a password is required"}
	}

	entries, err := decodePayload(file, password)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	now := o.now()
	for _, e := range entries {
		if err := o.importOne(ctx, e, now); err != nil {
			o.logger.Warn("account %q not imported: %v", e.Name, err)
			result.Failures = append(result.Failures, ImportFailure{Name: e.Name, Reason: err.Error()})
			continue
		}
		result.SuccessCount++
	}

	o.metrics.IncAccountOp("import", len(result.Failures) == 0)
	o.logger.Info("imported %d account(s), %d failure(s)", result.SuccessCount, len(result.Failures))
	return result, nil
}

func (o *Orchestrator) importOne(ctx context.Context, e ExportedAccount, now time.Time) error {
	creds, err := provider.CredentialsFromMap(e.Provider, e.Credentials)
	if err != nil {
		return err
	}
	p, err := providers.New(creds, o.exec)
	if err != nil {
		return err
	}

	account := Account{
		ID:        uuid.NewString(),
		Name:      e.Name,
		Provider:  e.Provider,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StatusActive,
	}
	if err := o.creds.Save(ctx, account.ID, e.Credentials); err != nil {
		return &CredentialError{Op: "save", Err: err}
	}
	o.registry.Register(account.ID, p)
	return o.accounts.Save(ctx, account)
}

// parseExportFile validates the structural shape, unmarshals the file, and
// applies the version gate.
func parseExportFile(raw []byte) (*ExportFile, error) {
	result, err := gojsonschema.Validate(exportSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &ValidationError{Detail: "export file is not valid JSON: " + err.Error()}
	}
	if !result.Valid() {
		return nil, &ValidationError{Detail: "export file malformed: " + result.Errors()[0].String()}
	}

	var file ExportFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, &ValidationError{Detail: "export file malformed: " + err.Error()}
	}
	if file.Header.Version > crypto.CurrentFileVersion {
		return nil, &UnsupportedFileVersionError{Version: file.Header.Version}
	}
	return &file, nil
}

// decodePayload returns the exported accounts, decrypting first when needed.
// Two encrypted encodings are accepted: salt and nonce in the header with
// data as the bare ciphertext, or a combined salt-nonce-ciphertext blob in
// data with no header fields.
func decodePayload(file *ExportFile, password string) ([]ExportedAccount, error) {
	payload := []byte(file.Data)

	if file.Header.Encrypted {
		var blob string
		if err := json.Unmarshal(file.Data, &blob); err != nil {
			return nil, &ValidationError{Detail: "encrypted data field must be a string"}
		}
		iterations, err := crypto.IterationsForVersion(file.Header.Version)
		if err != nil {
			return nil, &UnsupportedFileVersionError{Version: file.Header.Version}
		}

		if file.Header.Salt != "" && file.Header.Nonce != "" {
			payload, err = crypto.DecryptWithIterations(crypto.Blob{
				Salt:       file.Header.Salt,
				Nonce:      file.Header.Nonce,
				Ciphertext: blob,
			}, password, iterations)
		} else {
			payload, err = crypto.DecryptCombinedWithIterations(blob, password, iterations)
		}
		if err != nil {
			return nil, err
		}
	}

	var entries []ExportedAccount
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, &ValidationError{Detail: "export payload malformed: " + err.Error()}
	}
	return entries, nil
}
