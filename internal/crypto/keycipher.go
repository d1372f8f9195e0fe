package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/systmms/dnsops/internal/secure"
)

// KeyCipher is the fixed-key variant used for server-side at-rest credential
// storage. The operator supplies a 256-bit key as 64 hex characters; no salt
// or key derivation is involved, so the output encoding is base64(nonce ‖
// ciphertext). The key lives in a memguard-backed buffer between operations.
type KeyCipher struct {
	key *secure.Buffer
}

// NewKeyCipher builds a cipher from a hex-encoded 256-bit key.
func NewKeyCipher(hexKey string) (*KeyCipher, error) {
	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, &FormatError{Field: "key", Detail: err.Error()}
	}
	if len(keyBytes) != keyLength {
		return nil, &FormatError{
			Field:  "key",
			Detail: fmt.Sprintf("length %d bytes, want %d (%d hex characters)", len(keyBytes), keyLength, keyLength*2),
		}
	}
	buf := secure.NewBuffer(keyBytes)
	for i := range keyBytes {
		keyBytes[i] = 0
	}
	return &KeyCipher{key: buf}, nil
}

// GenerateKey returns a fresh random 256-bit key as hex text, suitable for
// operator configuration.
func GenerateKey() (string, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// EncryptString protects plaintext under the fixed key, drawing a fresh nonce.
func (c *KeyCipher) EncryptString(plaintext string) (string, error) {
	locked, err := c.key.Open()
	if err != nil {
		return "", fmt.Errorf("open key buffer: %w", err)
	}
	defer locked.Destroy()

	aead, err := newGCM(locked.Bytes())
	if err != nil {
		return "", err
	}

	nonce, err := randomBytes(nonceLength)
	if err != nil {
		return "", err
	}

	ct := aead.Seal(nil, nonce, []byte(plaintext), nil)
	combined := make([]byte, 0, nonceLength+len(ct))
	combined = append(combined, nonce...)
	combined = append(combined, ct...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

// DecryptString reverses EncryptString. Wrong key and corrupting the blob
// fail identically with ErrDecryptFailed.
func (c *KeyCipher) DecryptString(encrypted string) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", &FormatError{Field: "blob", Detail: err.Error()}
	}
	if len(combined) < nonceLength {
		return "", &FormatError{Field: "blob", Detail: "truncated"}
	}

	locked, err := c.key.Open()
	if err != nil {
		return "", fmt.Errorf("open key buffer: %w", err)
	}
	defer locked.Destroy()

	aead, err := newGCM(locked.Bytes())
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, combined[:nonceLength], combined[nonceLength:], nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

// Close destroys the in-memory key. The cipher is unusable afterwards.
func (c *KeyCipher) Close() {
	c.key.Destroy()
}
