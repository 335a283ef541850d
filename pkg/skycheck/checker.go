package skycheck

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Checker is the credential verification and reconciliation engine. One
// Check call performs a full pass: matrix construction, concurrent fan-out,
// aggregation, and reconciliation into the state store.
type Checker struct {
	registry      *Registry
	store         StateStore
	pseudo        []Provider
	allowedClouds []string
	probeTimeout  time.Duration
	probeLimit    int
}

// CheckerOption configures the Checker.
type CheckerOption func(*Checker)

// WithRegistry sets the provider registry.
func WithRegistry(r *Registry) CheckerOption {
	return func(c *Checker) {
		c.registry = r
	}
}

// WithStateStore sets the enablement state store.
func WithStateStore(s StateStore) CheckerOption {
	return func(c *Checker) {
		c.store = s
	}
}

// WithPseudoProvider adds a capability-only backend that bypasses the
// registry and is excluded from persisted enablement state.
func WithPseudoProvider(p Provider) CheckerOption {
	return func(c *Checker) {
		c.pseudo = append(c.pseudo, p)
	}
}

// WithAllowedClouds sets the administrator allow-list of provider names.
// Nil means every provider is allowed. Names are resolved and validated at
// the start of each run; reconciliation never enables a provider outside
// this list.
func WithAllowedClouds(names []string) CheckerOption {
	return func(c *Checker) {
		c.allowedClouds = names
	}
}

// WithProbeTimeout bounds each individual credential probe.
func WithProbeTimeout(d time.Duration) CheckerOption {
	return func(c *Checker) {
		c.probeTimeout = d
	}
}

// WithProbeLimit bounds the number of concurrently running probes.
// Zero means unbounded.
func WithProbeLimit(n int) CheckerOption {
	return func(c *Checker) {
		c.probeLimit = n
	}
}

// NewChecker creates a Checker with the given options.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		registry: DefaultRegistry,
		store:    NewMemoryStateStore(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CheckOptions configures a single check run.
type CheckOptions struct {
	// Clouds restricts the run to the named providers. Nil means all
	// registered providers plus all configured pseudo-providers.
	Clouds []string

	// Capabilities restricts the run to the given capabilities.
	// Nil means AllCapabilities.
	Capabilities []Capability

	// Verbose populates each provider report with its active identity.
	Verbose bool
}

// Check performs one full verification pass and reconciles the results into
// the state store.
//
// Unresolvable provider names (requested or allow-listed) fail fast before
// any probing. Individual probe failures never abort the pass; every
// attempted provider appears in the report. If, after reconciliation, no
// provider is enabled for any requested capability, Check returns the report
// together with a *NoCloudAccessError.
func (c *Checker) Check(ctx context.Context, opts CheckOptions) (*Report, error) {
	capabilities := opts.Capabilities
	if capabilities == nil {
		capabilities = AllCapabilities
	}

	allowed, err := c.resolveAllowList()
	if err != nil {
		return nil, err
	}

	matrix, err := BuildMatrix(c.registry, c.pseudo, opts.Clouds, capabilities, allowed)
	if err != nil {
		return nil, err
	}

	dispatcher := &Dispatcher{
		Adapter: &ProbeAdapter{Timeout: c.probeTimeout},
		Limit:   c.probeLimit,
	}
	outcomes := dispatcher.Run(ctx, matrix.Pairs)
	agg := AggregateOutcomes(matrix.Pairs, outcomes)

	reconciler := &Reconciler{Store: c.store, Allowed: allowed}
	enabled, union, reconcileErr := reconciler.Reconcile(ctx, capabilities, agg)

	report := &Report{
		RunID:      uuid.New().String(),
		Providers:  c.providerReports(ctx, agg, opts.Verbose),
		Enabled:    enabled,
		AllEnabled: union,
		Disallowed: matrix.Disallowed,
	}

	if reconcileErr != nil {
		return report, reconcileErr
	}
	if len(union) == 0 {
		return report, &NoCloudAccessError{
			Hint: "To enable a cloud, fix the reported credential issues and rerun the check.",
		}
	}
	return report, nil
}

// CheckCapability runs a pass restricted to one capability and returns the
// provider names enabled for it.
func (c *Checker) CheckCapability(ctx context.Context, capability Capability, clouds []string) ([]CloudProvider, error) {
	report, err := c.Check(ctx, CheckOptions{
		Clouds:       clouds,
		Capabilities: []Capability{capability},
	})
	if err != nil {
		return nil, err
	}
	return report.Enabled[capability], nil
}

// CheckAll runs a full pass over every capability and returns the names of
// providers with at least one enabled capability, including pseudo-providers.
func (c *Checker) CheckAll(ctx context.Context, clouds []string) ([]CloudProvider, error) {
	report, err := c.Check(ctx, CheckOptions{Clouds: clouds})
	if err != nil {
		return nil, err
	}
	var names []CloudProvider
	for _, pr := range report.Providers {
		if pr.Enabled() {
			names = append(names, pr.Provider)
		}
	}
	return names, nil
}

// CachedEnabledOrRefresh returns the cached enabled providers for a
// capability, running a quiet compute re-check first if the cache is empty.
// If the cache is still empty afterwards and raiseIfNoAccess is set, it
// returns a *NoCloudAccessError.
func (c *Checker) CachedEnabledOrRefresh(ctx context.Context, capability Capability, raiseIfNoAccess bool) ([]CloudProvider, error) {
	cached, err := c.store.GetEnabled(ctx, capability)
	if err != nil {
		return nil, err
	}
	if len(cached) == 0 {
		// A failed refresh is not fatal here; the caller only cares
		// whether anything ended up enabled.
		_, _ = c.CheckCapability(ctx, CapabilityCompute, nil)
		cached, err = c.store.GetEnabled(ctx, capability)
		if err != nil {
			return nil, err
		}
	}
	if raiseIfNoAccess && len(cached) == 0 {
		return nil, &NoCloudAccessError{Hint: "Cloud access is not set up. Run: skycheck check"}
	}
	return cached, nil
}

// resolveAllowList validates the configured allow-list names against the
// registry and pseudo-providers, failing fast on unknown names.
func (c *Checker) resolveAllowList() ([]CloudProvider, error) {
	if c.allowedClouds == nil {
		return nil, nil
	}
	allowed := make([]CloudProvider, 0, len(c.allowedClouds))
	for _, name := range c.allowedClouds {
		p, _, err := resolveProvider(c.registry, c.pseudo, name)
		if err != nil {
			return nil, err
		}
		allowed = append(allowed, p.Name())
	}
	return allowed, nil
}

// providerReports converts the aggregate into sorted presentation reports.
func (c *Checker) providerReports(ctx context.Context, agg *Aggregate, verbose bool) []ProviderReport {
	var reports []ProviderReport
	for _, name := range agg.ProviderNames() {
		pr := ProviderReport{
			Provider: name,
			Pseudo:   agg.Pseudo[name],
			Results:  agg.ByProvider[name],
			Contexts: agg.Contexts[name],
		}
		if verbose && pr.Enabled() {
			if p, _, err := resolveProvider(c.registry, c.pseudo, string(name)); err == nil {
				if ip, ok := p.(IdentityProvider); ok {
					if identity, err := ip.ActiveIdentity(ctx); err == nil {
						pr.Identity = identity
					}
				}
			}
		}
		reports = append(reports, pr)
	}
	return reports
}
