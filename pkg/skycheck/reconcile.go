package skycheck

import (
	"context"
	"errors"
	"fmt"
)

// Reconciler merges one pass's aggregated outcomes with the previously
// cached enablement state and the allow-list, producing and persisting the
// new enabled-provider set per capability.
//
// Reconciliation runs strictly after the fan-out phase joins, single
// threaded, so there is no writer contention on the store.
type Reconciler struct {
	// Store is the enablement state store, read once and written once per
	// capability.
	Store StateStore

	// Allowed is the resolved allow-list. Nil means every provider is
	// allowed. A provider absent from the allow-list can never appear in
	// the new enablement state, even if its probe succeeded.
	Allowed []CloudProvider
}

// ReconcileCapability computes and persists the new enabled set for a single
// capability:
//
//	enabled = allowed ∩ ((previous ∪ passed) − failed)
//
// Pseudo-providers are excluded from every operand. The write always
// happens, even when the resulting set is empty or unchanged.
func (r *Reconciler) ReconcileCapability(ctx context.Context, c Capability, agg *Aggregate) ([]CloudProvider, error) {
	passed := agg.passedSet(c)
	failed := agg.failedSet(c)

	previous, err := r.Store.GetEnabled(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("reading cached enablement for %s: %w", c, err)
	}

	candidate := make(map[CloudProvider]bool, len(previous)+len(passed))
	for _, name := range previous {
		if !agg.Pseudo[name] {
			candidate[name] = true
		}
	}
	for name := range passed {
		candidate[name] = true
	}
	for name := range failed {
		delete(candidate, name)
	}

	if r.Allowed != nil {
		allowed := make(map[CloudProvider]bool, len(r.Allowed))
		for _, name := range r.Allowed {
			if !agg.Pseudo[name] {
				allowed[name] = true
			}
		}
		for name := range candidate {
			if !allowed[name] {
				delete(candidate, name)
			}
		}
	}

	enabled := setToSorted(candidate)
	if err := r.Store.SetEnabled(ctx, c, enabled); err != nil {
		return nil, fmt.Errorf("persisting enablement for %s: %w", c, err)
	}
	return enabled, nil
}

// Reconcile runs ReconcileCapability for every requested capability. A
// failure for one capability does not block reconciliation of another; all
// per-capability errors are joined into the returned error.
//
// The second return value is the union, across capabilities, of every
// provider newly written into enablement state. Callers treat an empty union
// as the terminal no-cloud-access condition.
func (r *Reconciler) Reconcile(ctx context.Context, capabilities []Capability, agg *Aggregate) (map[Capability][]CloudProvider, []CloudProvider, error) {
	enabled := make(map[Capability][]CloudProvider, len(capabilities))
	union := make(map[CloudProvider]bool)
	var errs []error

	for _, c := range capabilities {
		names, err := r.ReconcileCapability(ctx, c, agg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		enabled[c] = names
		for _, name := range names {
			union[name] = true
		}
	}

	return enabled, setToSorted(union), errors.Join(errs...)
}
