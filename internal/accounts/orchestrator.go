package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/systmms/dnsops/internal/logging"
	"github.com/systmms/dnsops/internal/metrics"
	"github.com/systmms/dnsops/internal/providers"
	"github.com/systmms/dnsops/pkg/provider"
)

// Orchestrator coordinates account metadata, credential storage and the live
// provider registry. All mutating operations follow a strict step order so a
// partial failure never leaves a registered provider without durable
// credentials.
type Orchestrator struct {
	creds      CredentialStore
	accounts   AccountStore
	registry   *providers.Registry
	exec       *providers.Executor
	logger     *logging.Logger
	metrics    *metrics.Metrics
	appVersion string
	now        func() time.Time
}

// Options carries the orchestrator's collaborators. Logger and Metrics may be
// nil.
type Options struct {
	Credentials CredentialStore
	Accounts    AccountStore
	Registry    *providers.Registry
	Executor    *providers.Executor
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
	AppVersion  string
}

func NewOrchestrator(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(false, true)
	}
	return &Orchestrator{
		creds:      opts.Credentials,
		accounts:   opts.Accounts,
		registry:   opts.Registry,
		exec:       opts.Executor,
		logger:     logger,
		metrics:    opts.Metrics,
		appVersion: opts.AppVersion,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the credentials against the live vendor API before
// persisting anything. Step order: save credentials, register provider, save
// metadata.
func (o *Orchestrator) Create(ctx context.Context, name string, t provider.ProviderType, credMap map[string]string) (*Account, error) {
	if name == "" {
		return nil, &ValidationError{Detail: "account name must not be empty"}
	}
	if !t.Valid() {
		return nil, &ValidationError{Detail: "unsupported provider type: " + string(t)}
	}

	creds, err := provider.CredentialsFromMap(t, credMap)
	if err != nil {
		return nil, &ValidationError{Detail: err.Error()}
	}
	p, err := providers.New(creds, o.exec)
	if err != nil {
		return nil, &ValidationError{Detail: err.Error()}
	}

	ok, err := p.ValidateCredentials(ctx)
	if err != nil {
		o.metrics.IncAccountOp("create", false)
		return nil, err
	}
	if !ok {
		o.metrics.IncAccountOp("create", false)
		return nil, &provider.ProviderError{Kind: provider.KindInvalidCredentials, Provider: string(t)}
	}

	now := o.now()
	account := Account{
		ID:        uuid.NewString(),
		Name:      name,
		Provider:  t,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StatusActive,
	}

	if err := o.creds.Save(ctx, account.ID, credMap); err != nil {
		o.metrics.IncAccountOp("create", false)
		return nil, &CredentialError{Op: "save", Err: err}
	}
	o.registry.Register(account.ID, p)
	if err := o.accounts.Save(ctx, account); err != nil {
		o.metrics.IncAccountOp("create", false)
		return nil, err
	}

	o.metrics.IncAccountOp("create", true)
	o.logger.Info("account %q created (%s)", account.Name, account.Provider)
	return &account, nil
}

// Delete unregisters the provider, deletes credentials best-effort, then
// deletes metadata. Metadata deletion is the operation of record.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	account, err := o.accounts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if account == nil {
		return &AccountNotFoundError{ID: id}
	}

	o.registry.Unregister(id)
	if err := o.creds.Delete(ctx, id); err != nil {
		o.logger.Warn("credentials for account %q could not be deleted: %v", account.Name, err)
	}
	if err := o.accounts.Delete(ctx, id); err != nil {
		o.metrics.IncAccountOp("delete", false)
		return err
	}

	o.metrics.IncAccountOp("delete", true)
	o.logger.Info("account %q deleted", account.Name)
	return nil
}

// List returns all account metadata. Secrets are never touched.
func (o *Orchestrator) List(ctx context.Context) ([]Account, error) {
	return o.accounts.FindAll(ctx)
}

// Get returns one account's metadata.
func (o *Orchestrator) Get(ctx context.Context, id string) (*Account, error) {
	account, err := o.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &AccountNotFoundError{ID: id}
	}
	return account, nil
}

// Update renames an account and/or replaces its credentials. Replacement
// credentials are validated against the live vendor API and the provider
// instance is re-registered.
func (o *Orchestrator) Update(ctx context.Context, id, newName string, credMap map[string]string) (*Account, error) {
	account, err := o.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if credMap != nil {
		creds, err := provider.CredentialsFromMap(account.Provider, credMap)
		if err != nil {
			return nil, &ValidationError{Detail: err.Error()}
		}
		p, err := providers.New(creds, o.exec)
		if err != nil {
			return nil, &ValidationError{Detail: err.Error()}
		}
		ok, err := p.ValidateCredentials(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &provider.ProviderError{Kind: provider.KindInvalidCredentials, Provider: string(account.Provider)}
		}
		if err := o.creds.Save(ctx, id, credMap); err != nil {
			return nil, &CredentialError{Op: "save", Err: err}
		}
		o.registry.Register(id, p)
	}

	if newName != "" {
		account.Name = newName
	}
	account.UpdatedAt = o.now()
	account.Status = StatusActive
	account.Error = ""

	if err := o.accounts.Save(ctx, *account); err != nil {
		o.metrics.IncAccountOp("update", false)
		return nil, err
	}
	o.metrics.IncAccountOp("update", true)
	return account, nil
}

// Provider returns the live provider instance for an account id.
func (o *Orchestrator) Provider(id string) (provider.DNSProvider, error) {
	p, ok := o.registry.Get(id)
	if !ok {
		return nil, &AccountNotFoundError{ID: id}
	}
	return p, nil
}

// ListProviders returns the vendor catalogue.
func (o *Orchestrator) ListProviders() []provider.Metadata {
	return provider.AllMetadata()
}

// RestoreResult summarizes a startup restore.
type RestoreResult struct {
	SuccessCount int
	ErrorCount   int
}

// Restore rebuilds the registry from persisted state at process start. It
// never calls the vendor APIs: credentials are only reconstructed and
// registered, so stale credentials surface on first real use rather than
// slowing startup.
func (o *Orchestrator) Restore(ctx context.Context) (*RestoreResult, error) {
	all, err := o.accounts.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{}
	credMaps, err := o.creds.LoadAll(ctx)
	if err != nil {
		// One load failure poisons every account: none of them can be
		// registered without credentials.
		o.logger.Error("bulk credential load failed: %v", err)
		for _, account := range all {
			o.markError(ctx, account, "credential load failed: "+err.Error())
			result.ErrorCount++
		}
		return result, nil
	}

	for _, account := range all {
		credMap, ok := credMaps[account.ID]
		if !ok {
			o.markError(ctx, account, "credentials missing")
			result.ErrorCount++
			continue
		}
		creds, err := provider.CredentialsFromMap(account.Provider, credMap)
		if err != nil {
			o.markError(ctx, account, "stored credentials malformed: "+err.Error())
			result.ErrorCount++
			continue
		}
		p, err := providers.New(creds, o.exec)
		if err != nil {
			o.markError(ctx, account, err.Error())
			result.ErrorCount++
			continue
		}

		o.registry.Register(account.ID, p)
		// Unconditional: an Active account may still carry stale error text.
		if err := o.accounts.UpdateStatus(ctx, account.ID, StatusActive, ""); err != nil {
			o.logger.Warn("status for account %q not updated: %v", account.Name, err)
		}
		result.SuccessCount++
	}

	o.logger.Info("restored %d account(s), %d error(s)", result.SuccessCount, result.ErrorCount)
	return result, nil
}

func (o *Orchestrator) markError(ctx context.Context, account Account, reason string) {
	o.logger.Warn("account %q not restored: %s", account.Name, reason)
	if err := o.accounts.UpdateStatus(ctx, account.ID, StatusError, reason); err != nil {
		o.logger.Error("status for account %q not updated: %v", account.Name, err)
	}
}
