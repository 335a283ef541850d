// Package skycheck provides core types and interfaces for concurrent
// credential verification and enablement reconciliation.
package skycheck

import (
	"sort"
	"strings"
)

// Capability represents a named category of usable functionality a provider
// may or may not support.
type Capability string

const (
	// CapabilityCompute indicates the ability to provision compute resources.
	CapabilityCompute Capability = "compute"
	// CapabilityStorage indicates the ability to use object storage.
	CapabilityStorage Capability = "storage"
)

// AllCapabilities lists every known capability, in reporting order.
var AllCapabilities = []Capability{CapabilityCompute, CapabilityStorage}

// CloudProvider identifies a backend provider by its stable display name.
type CloudProvider string

const (
	ProviderAWS        CloudProvider = "aws"
	ProviderGCP        CloudProvider = "gcp"
	ProviderAzure      CloudProvider = "azure"
	ProviderKubernetes CloudProvider = "kubernetes"
	ProviderCloudflare CloudProvider = "cloudflare"
)

// Reason carries the diagnostic attached to a probe outcome. It is either
// absent (zero value), a plain text diagnostic, or a mapping from sub-context
// name (for example a kubeconfig context) to a status string. Text and
// Contexts are mutually exclusive.
type Reason struct {
	// Text is a plain diagnostic message.
	Text string

	// Contexts maps sub-context names to per-context status strings.
	Contexts map[string]string
}

// TextReason returns a plain text Reason.
func TextReason(text string) Reason {
	return Reason{Text: text}
}

// ContextReason returns a structured per-context Reason.
func ContextReason(contexts map[string]string) Reason {
	return Reason{Contexts: contexts}
}

// IsZero reports whether the reason is absent.
func (r Reason) IsZero() bool {
	return r.Text == "" && len(r.Contexts) == 0
}

// Structured reports whether the reason carries per-context statuses.
func (r Reason) Structured() bool {
	return len(r.Contexts) > 0
}

// Outcome is the immutable result of probing one (provider, capability)
// pair. It is created once by the probe adapter and consumed by the
// aggregator and reconciler.
type Outcome struct {
	// Provider is the probed provider's display name.
	Provider CloudProvider

	// Capability is the probed capability.
	Capability Capability

	// OK indicates whether local credentials permit use of the capability.
	OK bool

	// Reason is the optional diagnostic attached to the result.
	Reason Reason
}

// CapabilityResult is one (capability, ok, reason) triple in a provider's
// grouped report.
type CapabilityResult struct {
	Capability Capability
	OK         bool
	Reason     Reason
}

// ProviderReport groups all outcomes for one provider, for presentation.
type ProviderReport struct {
	// Provider is the provider's display name.
	Provider CloudProvider

	// Pseudo indicates a capability-only backend excluded from persisted
	// enablement state.
	Pseudo bool

	// Results holds one entry per probed capability, in capability order.
	Results []CapabilityResult

	// Contexts holds per-context statuses extracted from structured
	// reasons, if the provider returned any.
	Contexts map[string]string

	// Identity is the provider's active account identity, populated only
	// in verbose runs for providers that expose one.
	Identity string
}

// EnabledCapabilities returns the capabilities that passed for this provider.
func (p ProviderReport) EnabledCapabilities() []Capability {
	var caps []Capability
	for _, res := range p.Results {
		if res.OK {
			caps = append(caps, res.Capability)
		}
	}
	return caps
}

// Enabled reports whether any capability passed for this provider.
func (p ProviderReport) Enabled() bool {
	return len(p.EnabledCapabilities()) > 0
}

// Report is the full result of one check run.
type Report struct {
	// RunID uniquely identifies this check run.
	RunID string

	// Providers holds per-provider grouped results, sorted by name.
	Providers []ProviderReport

	// Enabled holds, per capability, the provider set persisted as the new
	// enablement state (sorted; pseudo-providers excluded).
	Enabled map[Capability][]CloudProvider

	// AllEnabled is the union across capabilities of every provider newly
	// written into enablement state, sorted.
	AllEnabled []CloudProvider

	// Disallowed lists known providers that were excluded because they are
	// not present in the allow-list, for the operator hint.
	Disallowed []CloudProvider
}

// sortProviders sorts a provider name slice in place and returns it.
func sortProviders(names []CloudProvider) []CloudProvider {
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// setToSorted converts a provider name set to a sorted slice.
func setToSorted(set map[CloudProvider]bool) []CloudProvider {
	names := make([]CloudProvider, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	return sortProviders(names)
}

// normalizeName lowercases a provider name for case-insensitive lookup.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
