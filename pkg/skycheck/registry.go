package skycheck

import (
	"fmt"
	"sync"
)

// Registry manages provider registration and discovery.
// It provides thread-safe access to registered providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[CloudProvider]Provider
}

// DefaultRegistry is the global provider registry.
// Providers register themselves via init() functions.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[CloudProvider]Provider),
	}
}

// Register adds a provider to the registry.
// This is typically called from provider package init() functions.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider already registered: %s", name)
	}

	r.providers[name] = p
	return nil
}

// Get retrieves a registered provider by name.
func (r *Registry) Get(name CloudProvider) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[name]
	if !exists {
		return nil, ErrNotFound("provider", string(name))
	}
	return p, nil
}

// FromString resolves a provider by display name, case-insensitively.
func (r *Registry) FromString(name string) (Provider, error) {
	return r.Get(CloudProvider(normalizeName(name)))
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []CloudProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]CloudProvider, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return sortProviders(names)
}

// Providers returns all registered providers, in name order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]CloudProvider, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sortProviders(names)

	providers := make([]Provider, 0, len(names))
	for _, name := range names {
		providers = append(providers, r.providers[name])
	}
	return providers
}

// ListByCapability returns providers that declare a specific capability.
func (r *Registry) ListByCapability(c Capability) []CloudProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []CloudProvider
	for name, p := range r.providers {
		if p.HasCapability(c) {
			names = append(names, name)
		}
	}
	return sortProviders(names)
}

// Unregister removes a provider from the registry.
// This is mainly useful for testing.
func (r *Registry) Unregister(name CloudProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, name)
}

// Clear removes all providers from the registry.
// This is mainly useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[CloudProvider]Provider)
}

// Global convenience functions that use DefaultRegistry

// Register adds a provider to the default registry.
func Register(p Provider) error {
	return DefaultRegistry.Register(p)
}

// GetProvider retrieves a provider from the default registry.
func GetProvider(name CloudProvider) (Provider, error) {
	return DefaultRegistry.Get(name)
}

// ListProviders returns all provider names in the default registry.
func ListProviders() []CloudProvider {
	return DefaultRegistry.List()
}

// ProviderInfo contains metadata about a registered provider.
type ProviderInfo struct {
	Name         CloudProvider
	Capabilities []Capability
	HasFiles     bool
	HasIdentity  bool
	Pseudo       bool
}

// DescribeProviders returns detailed info about all registered providers,
// followed by any supplied pseudo-providers flagged as such.
func DescribeProviders(pseudo ...Provider) []ProviderInfo {
	var infos []ProviderInfo
	for _, p := range DefaultRegistry.Providers() {
		infos = append(infos, describeProvider(p, false))
	}
	for _, p := range pseudo {
		infos = append(infos, describeProvider(p, true))
	}
	return infos
}

func describeProvider(p Provider, pseudo bool) ProviderInfo {
	info := ProviderInfo{
		Name:         p.Name(),
		Capabilities: p.Capabilities(),
		Pseudo:       pseudo,
	}
	_, info.HasFiles = p.(CredentialFileProvider)
	_, info.HasIdentity = p.(IdentityProvider)
	return info
}
