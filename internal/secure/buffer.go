// Package secure keeps the at-rest master encryption key out of plain process
// memory. The key spends its life inside a memguard enclave (encrypted in
// memory, mlocked where the OS allows) and is only decrypted for the duration
// of a single cipher operation.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer holds sensitive bytes in a memguard enclave.
type Buffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	destroyed bool
}

// NewBuffer copies data into a protected enclave. The caller should zero its
// own copy afterwards.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the enclave into a locked buffer. The caller must call
// Destroy() on the returned buffer as soon as the bytes are no longer needed.
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.destroyed {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return b.enclave.Open()
}

// Destroy marks the buffer unusable. Idempotent; subsequent Open calls return
// an empty locked buffer. Call memguard.Purge() at process exit for full
// cleanup of all enclaves.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}
