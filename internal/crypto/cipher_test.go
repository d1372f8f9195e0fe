package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		plaintext string
		password  string
	}{
		{"json payload", `[{"name":"prod","provider":"cloudflare"}]`, "correct horse"},
		{"unicode", "凭证数据 über ñ", "påsswörd"},
		{"single byte", "x", "p"},
		{"long", string(make([]byte, 8192)), "long-password-with-plenty-of-entropy"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			blob, err := Encrypt([]byte(tc.plaintext), tc.password)
			require.NoError(t, err)

			got, err := Decrypt(blob, tc.password)
			require.NoError(t, err)
			assert.Equal(t, []byte(tc.plaintext), got)
		})
	}
}

func TestDecryptWrongPasswordAndCorruptionIndistinguishable(t *testing.T) {
	t.Parallel()

	blob, err := Encrypt([]byte("secret material"), "right")
	require.NoError(t, err)

	_, wrongPwErr := Decrypt(blob, "wrong")
	require.ErrorIs(t, wrongPwErr, ErrDecryptFailed)

	// Flip one byte of the ciphertext.
	ct, err := base64.StdEncoding.DecodeString(blob.Ciphertext)
	require.NoError(t, err)
	ct[0] ^= 0xff
	corrupted := blob
	corrupted.Ciphertext = base64.StdEncoding.EncodeToString(ct)

	_, corruptErr := Decrypt(corrupted, "right")
	require.ErrorIs(t, corruptErr, ErrDecryptFailed)

	// Same opaque failure, same message: no oracle.
	assert.Equal(t, wrongPwErr.Error(), corruptErr.Error())
}

func TestDecryptMalformedBase64IsFormatError(t *testing.T) {
	t.Parallel()

	blob, err := Encrypt([]byte("x"), "pw")
	require.NoError(t, err)
	blob.Salt = "not!!base64"

	_, err = Decrypt(blob, "pw")
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "salt", fe.Field)
	assert.NotErrorIs(t, err, ErrDecryptFailed)
}

func TestEncryptNeverDeterministic(t *testing.T) {
	t.Parallel()

	a, err := Encrypt([]byte("same plaintext"), "same password")
	require.NoError(t, err)
	b, err := Encrypt([]byte("same plaintext"), "same password")
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Nonce, b.Nonce)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestDecryptWithHistoricalIterations(t *testing.T) {
	t.Parallel()

	// Forge a blob as an older build with a lower default would have
	// produced it, then decrypt it with the count supplied explicitly.
	const oldIterations = 10_000
	password := "legacy-password"
	plaintext := []byte("legacy payload")

	salt, err := randomBytes(saltLength)
	require.NoError(t, err)
	nonce, err := randomBytes(nonceLength)
	require.NoError(t, err)

	key := pbkdf2.Key([]byte(password), salt, oldIterations, keyLength, sha256.New)
	aead, err := newGCM(key)
	require.NoError(t, err)

	blob := Blob{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, plaintext, nil)),
	}

	got, err := DecryptWithIterations(blob, password, oldIterations)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)

	// The current default must not open it.
	require.NotEqual(t, uint32(oldIterations), CurrentIterations())
	_, err = Decrypt(blob, password)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestCombinedEncodingRoundTrip(t *testing.T) {
	t.Parallel()

	blob, err := EncryptCombined([]byte("export payload"), "pw")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)
	assert.Greater(t, len(raw), saltLength+nonceLength, "salt and nonce are prepended")

	got, err := DecryptCombined(blob, "pw")
	require.NoError(t, err)
	assert.Equal(t, []byte("export payload"), got)

	_, err = DecryptCombined(blob, "other")
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestCombinedTruncatedIsFormatError(t *testing.T) {
	t.Parallel()

	short := base64.StdEncoding.EncodeToString(make([]byte, saltLength+nonceLength-1))
	_, err := DecryptCombined(short, "pw")
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "blob", fe.Field)
}

func TestIterationsForVersion(t *testing.T) {
	t.Parallel()

	n, err := IterationsForVersion(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(100_000), n)
	assert.Equal(t, n, CurrentIterations())

	_, err = IterationsForVersion(99)
	assert.Error(t, err)
}
