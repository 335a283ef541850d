// Package skycheck verifies which cloud backends the local environment is
// able to use, and reconciles the results into durable enablement state.
//
// # Overview
//
// skycheck probes every registered provider for every requested capability
// (compute provisioning, object storage) concurrently, tolerating any single
// provider failure, and then merges this pass's results with the previously
// cached enablement state and an administrator-supplied allow-list. The
// resulting per-capability set of enabled providers is persisted and consumed
// by the scheduler before it places work onto a provider.
//
// # Core Concepts
//
// # Providers
//
// A Provider wraps one backend integration (AWS, GCP, Azure, Kubernetes, ...)
// behind a uniform credential-check interface. Providers declare which
// capabilities they may expose; a probe for an undeclared capability is a
// skip, not a failure.
//
// # Pseudo-providers
//
// A pseudo-provider is a capability-only backend (for example Cloudflare R2,
// which offers object storage but no compute) that is not tracked in the main
// provider registry. Pseudo-providers are probed and reported like any other
// provider but are excluded from persisted enablement state, because the
// downstream scheduler would not find them in its registry.
//
// # Enablement state
//
// The StateStore persists, per capability, the set of providers considered
// usable. It is the only state that outlives a single check run. The
// reconciler rewrites it exactly once per capability per run:
//
//	enabled = allowlist ∩ ((previous ∪ passed) − failed)
//
// # Usage
//
//	checker := skycheck.NewChecker(
//	    skycheck.WithStateStore(store),
//	    skycheck.WithAllowedClouds(cfg.AllowedClouds),
//	    skycheck.WithPseudoProvider(cloudflare.New()),
//	)
//
//	report, err := checker.Check(ctx, skycheck.CheckOptions{})
//	var noAccess *skycheck.NoCloudAccessError
//	if errors.As(err, &noAccess) {
//	    // no provider passed any capability; surface the remediation hint
//	}
//
// # Extension
//
// New providers implement the Provider interface and register themselves via
// skycheck.Register() or an init() function.
package skycheck
