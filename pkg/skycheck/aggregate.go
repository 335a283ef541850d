package skycheck

// Aggregate groups raw probe outcomes by provider and by capability.
// It is produced by a pure fold over the aligned (pair, outcome) lists and
// never talks to the state store.
type Aggregate struct {
	// ByProvider holds, per provider, one result per probed capability in
	// input order.
	ByProvider map[CloudProvider][]CapabilityResult

	// Contexts holds per-context status maps extracted from structured
	// reasons, keyed by provider.
	Contexts map[CloudProvider]map[string]string

	// Passed holds, per capability, the providers whose probe succeeded
	// this pass.
	Passed map[Capability]map[CloudProvider]bool

	// Failed holds, per capability, the providers whose probe failed this
	// pass.
	Failed map[Capability]map[CloudProvider]bool

	// Pseudo marks providers excluded from persisted enablement state.
	Pseudo map[CloudProvider]bool
}

// AggregateOutcomes folds the dispatcher's aligned outcome list into
// per-provider and per-capability groupings. Nil outcome slots (skipped
// pairs) contribute nothing.
func AggregateOutcomes(pairs []Pair, outcomes []*Outcome) *Aggregate {
	agg := &Aggregate{
		ByProvider: make(map[CloudProvider][]CapabilityResult),
		Contexts:   make(map[CloudProvider]map[string]string),
		Passed:     make(map[Capability]map[CloudProvider]bool),
		Failed:     make(map[Capability]map[CloudProvider]bool),
		Pseudo:     make(map[CloudProvider]bool),
	}

	for i, pair := range pairs {
		outcome := outcomes[i]
		if outcome == nil {
			continue
		}
		name := pair.Name
		if pair.Pseudo {
			agg.Pseudo[name] = true
		}

		agg.ByProvider[name] = append(agg.ByProvider[name], CapabilityResult{
			Capability: outcome.Capability,
			OK:         outcome.OK,
			Reason:     outcome.Reason,
		})
		if outcome.Reason.Structured() {
			agg.Contexts[name] = outcome.Reason.Contexts
		}

		if outcome.OK {
			if agg.Passed[outcome.Capability] == nil {
				agg.Passed[outcome.Capability] = make(map[CloudProvider]bool)
			}
			agg.Passed[outcome.Capability][name] = true
		} else {
			if agg.Failed[outcome.Capability] == nil {
				agg.Failed[outcome.Capability] = make(map[CloudProvider]bool)
			}
			agg.Failed[outcome.Capability][name] = true
		}
	}
	return agg
}

// ProviderNames returns every provider with at least one outcome, sorted.
func (a *Aggregate) ProviderNames() []CloudProvider {
	names := make([]CloudProvider, 0, len(a.ByProvider))
	for name := range a.ByProvider {
		names = append(names, name)
	}
	return sortProviders(names)
}

// passedSet returns providers that passed a capability this pass, excluding
// pseudo-providers.
func (a *Aggregate) passedSet(c Capability) map[CloudProvider]bool {
	return a.excludePseudo(a.Passed[c])
}

// failedSet returns providers that failed a capability this pass, excluding
// pseudo-providers.
func (a *Aggregate) failedSet(c Capability) map[CloudProvider]bool {
	return a.excludePseudo(a.Failed[c])
}

func (a *Aggregate) excludePseudo(set map[CloudProvider]bool) map[CloudProvider]bool {
	out := make(map[CloudProvider]bool, len(set))
	for name := range set {
		if !a.Pseudo[name] {
			out[name] = true
		}
	}
	return out
}
