package providers

import (
	"sync"

	"github.com/systmms/dnsops/pkg/provider"
)

// Registry holds the live adapter for each account id. It is safe for
// concurrent use; registering an id that already exists replaces the old
// instance atomically.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]provider.DNSProvider
}

func NewRegistry() *Registry {
	return &Registry{instances: make(map[string]provider.DNSProvider)}
}

// Register binds an account id to its adapter, replacing any previous one.
func (r *Registry) Register(accountID string, p provider.DNSProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[accountID] = p
}

// Unregister removes the adapter for an account id. Unknown ids are a no-op.
func (r *Registry) Unregister(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, accountID)
}

// Get returns the adapter for an account id, or false when none is bound.
func (r *Registry) Get(accountID string) (provider.DNSProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.instances[accountID]
	return p, ok
}

// IDs returns the bound account ids in no particular order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	return ids
}
