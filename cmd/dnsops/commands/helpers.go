// Package commands implements the dnsops CLI commands.
package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/systmms/dnsops/internal/accounts"
	"github.com/systmms/dnsops/internal/config"
	"github.com/systmms/dnsops/internal/crypto"
	"github.com/systmms/dnsops/internal/metrics"
	"github.com/systmms/dnsops/internal/providers"
	"github.com/systmms/dnsops/internal/store"
)

// AppVersion is stamped into export files. Set from main at build time.
var AppVersion = "dev"

// buildOrchestrator wires the configured store backend, runs the startup
// restore, and returns the orchestrator plus a cleanup func.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*accounts.Orchestrator, func(), error) {
	if cfg.Definition == nil {
		if err := cfg.Load(); err != nil {
			return nil, nil, err
		}
	}
	def := cfg.Definition
	cleanup := func() {}

	var credStore accounts.CredentialStore
	var acctStore accounts.AccountStore

	switch def.Store.Backend {
	case config.BackendFile:
		cipher, err := openCipher(def)
		if err != nil {
			return nil, nil, err
		}
		fs := store.NewFileStore(def.Store.Path, cipher)
		credStore = fs.Credentials()
		acctStore = fs.Accounts()
		cleanup = cipher.Close

	case config.BackendKeyring:
		// Secrets go to the OS keyring; metadata still needs a file. The
		// metadata file holds no secrets, so no cipher is involved.
		credStore = store.NewKeyringStore(def.Store.KeyringService)
		acctStore = store.NewFileStore(metadataPath(def), nil).Accounts()

	case config.BackendPostgres:
		cipher, err := openCipher(def)
		if err != nil {
			return nil, nil, err
		}
		sqlStore, err := store.OpenSQLStore(ctx, def.Store.DSN, cipher)
		if err != nil {
			cipher.Close()
			return nil, nil, err
		}
		credStore = sqlStore.Credentials()
		acctStore = sqlStore.Accounts()
		cleanup = func() {
			sqlStore.Close()
			cipher.Close()
		}

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", def.Store.Backend)
	}

	o := accounts.NewOrchestrator(accounts.Options{
		Credentials: credStore,
		Accounts:    acctStore,
		Registry:    providers.NewRegistry(),
		Executor:    providers.NewExecutor(cfg.Logger, metrics.New()),
		Logger:      cfg.Logger,
		AppVersion:  AppVersion,
	})

	if _, err := o.Restore(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return o, cleanup, nil
}

func openCipher(def *config.Definition) (*crypto.KeyCipher, error) {
	key, err := def.ResolveEncryptionKey()
	if err != nil {
		return nil, err
	}
	return crypto.NewKeyCipher(key)
}

func metadataPath(def *config.Definition) string {
	if def.Store.Path != "" {
		return def.Store.Path
	}
	return config.Default().Store.Path
}

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}
