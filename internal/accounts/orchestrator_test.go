package accounts_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dnsops/internal/accounts"
	"github.com/systmms/dnsops/internal/providers"
	"github.com/systmms/dnsops/internal/store"
	"github.com/systmms/dnsops/pkg/provider"
)

// rewriteTransport sends every request to the test server regardless of the
// host the adapter signed for.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func vendorExecutor(t *testing.T, handler http.HandlerFunc) *providers.Executor {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	client := &http.Client{Transport: rewriteTransport{target: target}}
	return providers.NewExecutorWithClient(client, nil, nil)
}

func cloudflareOK(t *testing.T) *providers.Executor {
	return vendorExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "result": {"status": "active"}, "errors": []}`))
	})
}

func newOrchestrator(t *testing.T, exec *providers.Executor) (*accounts.Orchestrator, *store.MemStore, *providers.Registry) {
	t.Helper()
	mem := store.NewMemStore()
	registry := providers.NewRegistry()
	o := accounts.NewOrchestrator(accounts.Options{
		Credentials: mem.Credentials(),
		Accounts:    mem.Accounts(),
		Registry:    registry,
		Executor:    exec,
		AppVersion:  "test",
	})
	return o, mem, registry
}

func seedAccount(t *testing.T, mem *store.MemStore, id, name string, creds map[string]string) accounts.Account {
	t.Helper()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := accounts.Account{
		ID: id, Name: name, Provider: provider.TypeCloudflare,
		CreatedAt: now, UpdatedAt: now, Status: accounts.StatusActive,
	}
	require.NoError(t, mem.Accounts().Save(context.Background(), a))
	if creds != nil {
		require.NoError(t, mem.Credentials().Save(context.Background(), id, creds))
	}
	return a
}

func TestCreateValidatesAndPersists(t *testing.T) {
	t.Parallel()

	o, mem, registry := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()

	account, err := o.Create(ctx, "prod", provider.TypeCloudflare, map[string]string{"apiToken": "tok"})
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, accounts.StatusActive, account.Status)

	stored, err := mem.Accounts().FindByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	creds, err := mem.Credentials().Load(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", creds["apiToken"])

	_, ok := registry.Get(account.ID)
	assert.True(t, ok)
}

func TestCreateRejectedPersistsNothing(t *testing.T) {
	t.Parallel()

	exec := vendorExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success": false, "result": null, "errors": [{"code": 10000, "message": "Authentication error"}]}`))
	})
	o, mem, registry := newOrchestrator(t, exec)
	ctx := context.Background()

	_, err := o.Create(ctx, "prod", provider.TypeCloudflare, map[string]string{"apiToken": "bad"})
	require.ErrorIs(t, err, &provider.ProviderError{Kind: provider.KindInvalidCredentials})

	all, err := mem.Accounts().FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	credMaps, err := mem.Credentials().LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, credMaps)
	assert.Empty(t, registry.IDs())
}

func TestCreateRejectsBadInput(t *testing.T) {
	t.Parallel()

	o, _, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()

	var verr *accounts.ValidationError
	_, err := o.Create(ctx, "", provider.TypeCloudflare, map[string]string{"apiToken": "tok"})
	require.ErrorAs(t, err, &verr)

	_, err = o.Create(ctx, "prod", "route53", map[string]string{"apiToken": "tok"})
	require.ErrorAs(t, err, &verr)

	_, err = o.Create(ctx, "prod", provider.TypeCloudflare, map[string]string{})
	require.ErrorAs(t, err, &verr)
}

func TestDeleteRemovesEverything(t *testing.T) {
	t.Parallel()

	o, mem, registry := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()

	account, err := o.Create(ctx, "prod", provider.TypeCloudflare, map[string]string{"apiToken": "tok"})
	require.NoError(t, err)

	require.NoError(t, o.Delete(ctx, account.ID))

	_, ok := registry.Get(account.ID)
	assert.False(t, ok)
	stored, err := mem.Accounts().FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	var notFound *accounts.AccountNotFoundError
	require.ErrorAs(t, o.Delete(ctx, account.ID), &notFound)
}

func TestUpdateRename(t *testing.T) {
	t.Parallel()

	o, mem, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()

	account, err := o.Create(ctx, "prod", provider.TypeCloudflare, map[string]string{"apiToken": "tok"})
	require.NoError(t, err)

	updated, err := o.Update(ctx, account.ID, "production", nil)
	require.NoError(t, err)
	assert.Equal(t, "production", updated.Name)
	assert.Equal(t, account.ID, updated.ID)

	stored, err := mem.Accounts().FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "production", stored.Name)

	// Credentials untouched by a pure rename.
	creds, err := mem.Credentials().Load(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", creds["apiToken"])
}

func TestRestoreRegistersWithoutNetwork(t *testing.T) {
	t.Parallel()

	// A restore that touches the network would fail against this executor.
	exec := vendorExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("restore must not call the vendor API")
	})
	o, mem, registry := newOrchestrator(t, exec)
	ctx := context.Background()

	a1 := seedAccount(t, mem, "a1", "prod", map[string]string{"apiToken": "tok"})
	a2 := seedAccount(t, mem, "a2", "staging", nil) // no credentials

	result, err := o.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)

	_, ok := registry.Get(a1.ID)
	assert.True(t, ok)
	_, ok = registry.Get(a2.ID)
	assert.False(t, ok)

	stored, err := mem.Accounts().FindByID(ctx, a2.ID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusError, stored.Status)
	assert.Contains(t, stored.Error, "credentials missing")
}

func TestRestoreClearsStaleErrorText(t *testing.T) {
	t.Parallel()

	o, mem, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()

	a := seedAccount(t, mem, "a1", "prod", map[string]string{"apiToken": "tok"})
	a.Error = "vendor rejected credentials"
	require.NoError(t, mem.Accounts().Save(ctx, a))

	_, err := o.Restore(ctx)
	require.NoError(t, err)

	stored, err := mem.Accounts().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusActive, stored.Status)
	assert.Empty(t, stored.Error)
}

func TestRestoreMalformedCredentialsMarkError(t *testing.T) {
	t.Parallel()

	o, mem, registry := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()

	a := seedAccount(t, mem, "a1", "prod", map[string]string{"wrongField": "x"})

	result, err := o.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)

	_, ok := registry.Get(a.ID)
	assert.False(t, ok)
	stored, err := mem.Accounts().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusError, stored.Status)
}

// failingCredentials simulates a dead credential backend.
type failingCredentials struct {
	accounts.CredentialStore
}

func (failingCredentials) LoadAll(ctx context.Context) (map[string]map[string]string, error) {
	return nil, assert.AnError
}

func TestRestoreBulkLoadFailureMarksAllError(t *testing.T) {
	t.Parallel()

	mem := store.NewMemStore()
	registry := providers.NewRegistry()
	o := accounts.NewOrchestrator(accounts.Options{
		Credentials: failingCredentials{mem.Credentials()},
		Accounts:    mem.Accounts(),
		Registry:    registry,
		Executor:    cloudflareOK(t),
		AppVersion:  "test",
	})
	ctx := context.Background()

	seedAccount(t, mem, "a1", "prod", map[string]string{"apiToken": "tok"})
	seedAccount(t, mem, "a2", "staging", map[string]string{"apiToken": "tok2"})

	result, err := o.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Empty(t, registry.IDs())

	all, err := mem.Accounts().FindAll(ctx)
	require.NoError(t, err)
	for _, a := range all {
		assert.Equal(t, accounts.StatusError, a.Status)
		assert.Contains(t, a.Error, assert.AnError.Error())
	}
}

func TestListProvidersCatalogue(t *testing.T) {
	t.Parallel()

	o, _, _ := newOrchestrator(t, cloudflareOK(t))
	catalogue := o.ListProviders()
	require.Len(t, catalogue, 4)
	assert.Equal(t, provider.TypeAliyun, catalogue[0].Type)
}
