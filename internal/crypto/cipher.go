// Package crypto implements the symmetric protection applied to credential
// material: AES-256-GCM with either a password-derived key (PBKDF2-SHA256,
// used for export files and ad-hoc password encryption) or a fixed
// operator-managed key (used for server-side at-rest storage).
//
// Two wire encodings exist and both must stay supported:
//
//   - structured: salt, nonce and ciphertext as three independent base64
//     fields (Blob), used by structured storage;
//   - combined: one base64 field holding salt ‖ nonce ‖ ciphertext, used for
//     password-protected export payloads.
//
// Wrong-password and corrupted-ciphertext failures are deliberately
// indistinguishable (ErrDecryptFailed): distinguishing them would hand an
// oracle to an attacker probing an exported file. Malformed base64 or
// truncated input is a separate structural FormatError.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength  = 16
	nonceLength = 12
	keyLength   = 32 // AES-256
)

// ErrDecryptFailed is the single opaque failure for wrong password or
// tampered ciphertext. Callers must not try to tell the two apart.
var ErrDecryptFailed = errors.New("decryption failed: invalid password or corrupted data")

// FormatError reports structurally invalid input (bad base64, short blob)
// detected before any key derivation happens. Distinct from ErrDecryptFailed.
type FormatError struct {
	Field  string
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// Blob is the structured-storage encoding of an encrypted payload. Each field
// is independently base64 encoded.
type Blob struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

func deriveKey(password string, salt []byte, iterations uint32) []byte {
	return pbkdf2.Key([]byte(password), salt, int(iterations), keyLength, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// randomBytes draws n fresh bytes from the CSPRNG. Salt and nonce are drawn
// per call and never reused; nonce reuse under the same key would void the
// AEAD guarantees.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return b, nil
}

// Encrypt protects plaintext under a password-derived key using the current
// iteration count and returns the structured three-field encoding.
func Encrypt(plaintext []byte, password string) (Blob, error) {
	salt, nonce, ct, err := encryptRaw(plaintext, password)
	if err != nil {
		return Blob{}, err
	}
	return Blob{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ct),
	}, nil
}

// Decrypt reverses Encrypt using the current default iteration count.
func Decrypt(b Blob, password string) ([]byte, error) {
	return DecryptWithIterations(b, password, CurrentIterations())
}

// DecryptWithIterations decrypts a blob produced by a build whose default
// iteration count was iterations. This is the backward-compatibility contract:
// moving the current default must never strand old blobs.
func DecryptWithIterations(b Blob, password string, iterations uint32) ([]byte, error) {
	salt, err := decodeField("salt", b.Salt)
	if err != nil {
		return nil, err
	}
	nonce, err := decodeField("nonce", b.Nonce)
	if err != nil {
		return nil, err
	}
	ct, err := decodeField("ciphertext", b.Ciphertext)
	if err != nil {
		return nil, err
	}
	return decryptRaw(salt, nonce, ct, password, iterations)
}

// EncryptCombined protects plaintext under a password-derived key and returns
// the single-field encoding base64(salt ‖ nonce ‖ ciphertext).
func EncryptCombined(plaintext []byte, password string) (string, error) {
	salt, nonce, ct, err := encryptRaw(plaintext, password)
	if err != nil {
		return "", err
	}
	combined := make([]byte, 0, len(salt)+len(nonce)+len(ct))
	combined = append(combined, salt...)
	combined = append(combined, nonce...)
	combined = append(combined, ct...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

// DecryptCombined reverses EncryptCombined with the current iteration count.
func DecryptCombined(blob, password string) ([]byte, error) {
	return DecryptCombinedWithIterations(blob, password, CurrentIterations())
}

// DecryptCombinedWithIterations reverses EncryptCombined for a historical
// iteration count.
func DecryptCombinedWithIterations(blob, password string, iterations uint32) ([]byte, error) {
	combined, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, &FormatError{Field: "blob", Detail: err.Error()}
	}
	if len(combined) < saltLength+nonceLength {
		return nil, &FormatError{Field: "blob", Detail: "truncated"}
	}
	salt := combined[:saltLength]
	nonce := combined[saltLength : saltLength+nonceLength]
	ct := combined[saltLength+nonceLength:]
	return decryptRaw(salt, nonce, ct, password, iterations)
}

func encryptRaw(plaintext []byte, password string) (salt, nonce, ct []byte, err error) {
	salt, err = randomBytes(saltLength)
	if err != nil {
		return nil, nil, nil, err
	}
	nonce, err = randomBytes(nonceLength)
	if err != nil {
		return nil, nil, nil, err
	}

	key := deriveKey(password, salt, CurrentIterations())
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, nil, err
	}

	ct = aead.Seal(nil, nonce, plaintext, nil)
	return salt, nonce, ct, nil
}

func decryptRaw(salt, nonce, ct []byte, password string, iterations uint32) ([]byte, error) {
	if len(nonce) != nonceLength {
		return nil, &FormatError{Field: "nonce", Detail: fmt.Sprintf("length %d, want %d", len(nonce), nonceLength)}
	}

	key := deriveKey(password, salt, iterations)
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		// Collapse wrong-password and corruption into one opaque failure.
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

func decodeField(name, value string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, &FormatError{Field: name, Detail: err.Error()}
	}
	return b, nil
}
