package skycheck

// Pair is one eligible (provider, capability) combination to be probed.
type Pair struct {
	// Provider is the resolved provider handle.
	Provider Provider

	// Name is the provider's display name.
	Name CloudProvider

	// Capability is the capability to probe.
	Capability Capability

	// Pseudo marks a capability-only backend that bypasses the registry
	// and is excluded from persisted enablement state.
	Pseudo bool
}

// Matrix is the resolved set of eligible probe pairs for one run.
type Matrix struct {
	// Pairs is the eligible cartesian product of providers × capabilities,
	// after allow-list and declared-capability filtering.
	Pairs []Pair

	// Disallowed lists known providers excluded by the allow-list, for the
	// operator hint.
	Disallowed []CloudProvider
}

// resolveProvider resolves a requested name to a provider handle.
// Pseudo-providers are matched first and bypass the registry lookup.
func resolveProvider(reg *Registry, pseudo []Provider, name string) (Provider, bool, error) {
	normalized := CloudProvider(normalizeName(name))
	for _, p := range pseudo {
		if p.Name() == normalized {
			return p, true, nil
		}
	}
	p, err := reg.Get(normalized)
	if err != nil {
		return nil, false, err
	}
	return p, false, nil
}

// BuildMatrix produces the eligible (provider, capability) pairs for a run.
//
// names selects the providers to probe; nil means all registered providers
// plus all configured pseudo-providers. capabilities selects the capabilities
// to probe; nil means AllCapabilities. allowed is the resolved allow-list;
// nil means every provider is allowed. Providers outside the allow-list are
// dropped and recorded in Disallowed. Pairs whose provider does not declare
// the capability are not eligible and produce no outcome.
//
// An unknown requested name fails fast, before any probing starts.
func BuildMatrix(reg *Registry, pseudo []Provider, names []string, capabilities []Capability, allowed []CloudProvider) (*Matrix, error) {
	if capabilities == nil {
		capabilities = AllCapabilities
	}

	type resolved struct {
		provider Provider
		pseudo   bool
	}

	var candidates []resolved
	if names == nil {
		for _, p := range reg.Providers() {
			candidates = append(candidates, resolved{provider: p})
		}
		for _, p := range pseudo {
			candidates = append(candidates, resolved{provider: p, pseudo: true})
		}
	} else {
		for _, name := range names {
			p, isPseudo, err := resolveProvider(reg, pseudo, name)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, resolved{provider: p, pseudo: isPseudo})
		}
	}

	allowedSet := map[CloudProvider]bool{}
	for _, name := range allowed {
		allowedSet[name] = true
	}
	allowAll := allowed == nil

	m := &Matrix{}
	for _, c := range candidates {
		name := c.provider.Name()
		if !allowAll && !allowedSet[name] {
			m.Disallowed = append(m.Disallowed, name)
			continue
		}
		for _, capability := range capabilities {
			if !c.provider.HasCapability(capability) {
				continue
			}
			m.Pairs = append(m.Pairs, Pair{
				Provider:   c.provider,
				Name:       name,
				Capability: capability,
				Pseudo:     c.pseudo,
			})
		}
	}
	sortProviders(m.Disallowed)
	return m, nil
}
