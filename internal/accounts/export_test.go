package accounts_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dnsops/internal/accounts"
	"github.com/systmms/dnsops/internal/crypto"
	"github.com/systmms/dnsops/pkg/provider"
)

func marshalFile(t *testing.T, file *accounts.ExportFile) []byte {
	t.Helper()
	raw, err := json.Marshal(file)
	require.NoError(t, err)
	return raw
}

func TestExportMintsFreshIDs(t *testing.T) {
	t.Parallel()

	o, mem, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()
	source := seedAccount(t, mem, "a1", "prod", map[string]string{"apiToken": "tok"})

	file, err := o.Export(ctx, []string{"a1"}, "")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), file.Header.Version)
	assert.False(t, file.Header.Encrypted)
	assert.Empty(t, file.Header.Salt)
	assert.NotEmpty(t, file.Header.ExportedAt)

	var entries []accounts.ExportedAccount
	require.NoError(t, json.Unmarshal(file.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "prod", entries[0].Name)
	assert.Equal(t, provider.TypeCloudflare, entries[0].Provider)
	assert.Equal(t, "tok", entries[0].Credentials["apiToken"])
	assert.NotEqual(t, source.ID, entries[0].ID, "export must never reuse source ids")
}

func TestExportSkipsMissingCredentialsWithWarning(t *testing.T) {
	t.Parallel()

	o, mem, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()
	seedAccount(t, mem, "a1", "prod", map[string]string{"apiToken": "tok"})
	seedAccount(t, mem, "a2", "broken", nil)

	file, err := o.Export(ctx, []string{"a1", "a2"}, "")
	require.NoError(t, err)

	var entries []accounts.ExportedAccount
	require.NoError(t, json.Unmarshal(file.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "prod", entries[0].Name)
}

func TestExportSkipsUnknownIDs(t *testing.T) {
	t.Parallel()

	o, mem, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()
	seedAccount(t, mem, "a1", "prod", map[string]string{"apiToken": "tok"})

	file, err := o.Export(ctx, []string{"a1", "bogus-id"}, "")
	require.NoError(t, err)

	var entries []accounts.ExportedAccount
	require.NoError(t, json.Unmarshal(file.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "prod", entries[0].Name)

	_, err = o.Export(ctx, []string{"bogus-id"}, "")
	require.ErrorIs(t, err, accounts.ErrNoAccountsSelected)
}

func TestExportNoAccountsSelected(t *testing.T) {
	t.Parallel()

	o, mem, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()

	_, err := o.Export(ctx, nil, "")
	require.ErrorIs(t, err, accounts.ErrNoAccountsSelected)

	// All selected accounts lacking credentials collapses to the same error.
	seedAccount(t, mem, "a1", "broken", nil)
	_, err = o.Export(ctx, []string{"a1"}, "")
	require.ErrorIs(t, err, accounts.ErrNoAccountsSelected)
}

func TestExportImportIdentity(t *testing.T) {
	t.Parallel()

	src, srcMem, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()
	source := seedAccount(t, srcMem, "a1", "prod", map[string]string{"apiToken": "tok"})

	file, err := src.Export(ctx, []string{"a1"}, "")
	require.NoError(t, err)

	dst, dstMem, dstRegistry := newOrchestrator(t, cloudflareOK(t))
	result, err := dst.Import(ctx, marshalFile(t, file), "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Empty(t, result.Failures)

	imported, err := dstMem.Accounts().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, source.Name, imported[0].Name)
	assert.Equal(t, source.Provider, imported[0].Provider)
	assert.NotEqual(t, source.ID, imported[0].ID)

	creds, err := dstMem.Credentials().Load(ctx, imported[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", creds["apiToken"])

	_, ok := dstRegistry.Get(imported[0].ID)
	assert.True(t, ok)
}

func TestEncryptedExportRoundTrip(t *testing.T) {
	t.Parallel()

	src, srcMem, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()
	seedAccount(t, srcMem, "a1", "prod", map[string]string{"apiToken": "tok"})

	file, err := src.Export(ctx, []string{"a1"}, "hunter2")
	require.NoError(t, err)
	assert.True(t, file.Header.Encrypted)
	assert.NotEmpty(t, file.Header.Salt)
	assert.NotEmpty(t, file.Header.Nonce)

	raw := marshalFile(t, file)
	assert.NotContains(t, string(raw), "tok", "credentials must not appear in an encrypted export")

	dst, _, _ := newOrchestrator(t, cloudflareOK(t))

	// Preview without password: encrypted flag only, never decrypted.
	preview, err := dst.PreviewImport(ctx, raw, "")
	require.NoError(t, err)
	assert.True(t, preview.Encrypted)
	assert.Equal(t, 0, preview.AccountCount)
	assert.Empty(t, preview.Accounts)

	// Wrong password fails uniformly.
	_, err = dst.PreviewImport(ctx, raw, "wrong")
	require.ErrorIs(t, err, crypto.ErrDecryptFailed)

	result, err := dst.Import(ctx, raw, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
}

func TestImportEncryptedWithoutPasswordFails(t *testing.T) {
	t.Parallel()

	src, srcMem, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()
	seedAccount(t, srcMem, "a1", "prod", map[string]string{"apiToken": "tok"})

	file, err := src.Export(ctx, []string{"a1"}, "hunter2")
	require.NoError(t, err)

	dst, _, _ := newOrchestrator(t, cloudflareOK(t))
	var verr *accounts.ValidationError
	_, err = dst.Import(ctx, marshalFile(t, file), "")
	require.ErrorAs(t, err, &verr)
}

func TestImportAcceptsCombinedBlobEncoding(t *testing.T) {
	t.Parallel()

	entries := []accounts.ExportedAccount{{
		ID: "fresh", Name: "prod", Provider: provider.TypeCloudflare,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		Credentials: map[string]string{"apiToken": "tok"},
	}}
	payload, err := json.Marshal(entries)
	require.NoError(t, err)
	blob, err := crypto.EncryptCombined(payload, "hunter2")
	require.NoError(t, err)
	data, err := json.Marshal(blob)
	require.NoError(t, err)

	file := &accounts.ExportFile{
		Header: accounts.ExportHeader{
			Version: 1, Encrypted: true,
			ExportedAt: time.Now().UTC().Format(time.RFC3339), AppVersion: "test",
		},
		Data: data,
	}

	dst, _, _ := newOrchestrator(t, cloudflareOK(t))
	result, err := dst.Import(context.Background(), marshalFile(t, file), "hunter2")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
}

func TestPreviewReportsNameConflicts(t *testing.T) {
	t.Parallel()

	src, srcMem, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()
	seedAccount(t, srcMem, "a1", "prod", map[string]string{"apiToken": "tok"})
	seedAccount(t, srcMem, "a2", "staging", map[string]string{"apiToken": "tok2"})

	file, err := src.Export(ctx, []string{"a1", "a2"}, "")
	require.NoError(t, err)

	dst, dstMem, _ := newOrchestrator(t, cloudflareOK(t))
	seedAccount(t, dstMem, "b1", "prod", map[string]string{"apiToken": "other"})

	preview, err := dst.PreviewImport(ctx, marshalFile(t, file), "")
	require.NoError(t, err)
	assert.Equal(t, 2, preview.AccountCount)

	byName := make(map[string]bool)
	for _, e := range preview.Accounts {
		byName[e.Name] = e.HasConflict
	}
	assert.True(t, byName["prod"])
	assert.False(t, byName["staging"])
}

func TestImportPartialFailure(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	entry := func(name string, creds map[string]string) accounts.ExportedAccount {
		return accounts.ExportedAccount{
			ID: "id-" + name, Name: name, Provider: provider.TypeCloudflare,
			CreatedAt: now, UpdatedAt: now, Credentials: creds,
		}
	}
	entries := []accounts.ExportedAccount{
		entry("one", map[string]string{"apiToken": "t1"}),
		entry("two", map[string]string{"wrongField": "x"}),
		entry("three", map[string]string{"apiToken": "t3"}),
	}
	payload, err := json.Marshal(entries)
	require.NoError(t, err)
	file := &accounts.ExportFile{
		Header: accounts.ExportHeader{Version: 1, ExportedAt: now.Format(time.RFC3339)},
		Data:   payload,
	}

	dst, dstMem, _ := newOrchestrator(t, cloudflareOK(t))
	result, err := dst.Import(context.Background(), marshalFile(t, file), "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "two", result.Failures[0].Name)
	assert.NotEmpty(t, result.Failures[0].Reason)

	all, err := dstMem.Accounts().FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFutureVersionRejected(t *testing.T) {
	t.Parallel()

	file := &accounts.ExportFile{
		Header: accounts.ExportHeader{Version: 2, ExportedAt: time.Now().UTC().Format(time.RFC3339)},
		Data:   json.RawMessage(`[]`),
	}
	raw := marshalFile(t, file)

	o, _, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()

	var vErr *accounts.UnsupportedFileVersionError
	_, err := o.PreviewImport(ctx, raw, "")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, uint32(2), vErr.Version)

	_, err = o.Import(ctx, raw, "")
	require.ErrorAs(t, err, &vErr)
}

func TestMalformedImportRejected(t *testing.T) {
	t.Parallel()

	o, _, _ := newOrchestrator(t, cloudflareOK(t))
	ctx := context.Background()

	var verr *accounts.ValidationError
	_, err := o.PreviewImport(ctx, []byte(`not json`), "")
	require.ErrorAs(t, err, &verr)

	_, err = o.PreviewImport(ctx, []byte(`{"data": []}`), "")
	require.ErrorAs(t, err, &verr, "missing header must fail structural validation")

	_, err = o.PreviewImport(ctx, []byte(`{"header": {"version": 1, "encrypted": false, "exportedAt": "x"}, "data": 42}`), "")
	require.ErrorAs(t, err, &verr, "data must be array or string")
}

func TestSuggestedExportFilename(t *testing.T) {
	t.Parallel()

	o, _, _ := newOrchestrator(t, cloudflareOK(t))
	name := o.SuggestedExportFilename()
	assert.Regexp(t, `^dnsops-backup-\d{8}-\d{6}\.json$`, name)
}
