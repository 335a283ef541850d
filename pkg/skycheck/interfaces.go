package skycheck

import (
	"context"
)

// Provider is the closed interface every backend integration implements.
// A provider is probed per capability; its credential check may block on
// network I/O and must honor ctx cancellation.
type Provider interface {
	// Name returns the provider's stable display name.
	Name() CloudProvider

	// Capabilities returns the capabilities this provider may expose.
	Capabilities() []Capability

	// HasCapability checks if the provider declares a specific capability.
	HasCapability(c Capability) bool

	// CheckCredentials verifies whether locally available credentials
	// permit use of the given capability. A clean denial is reported as
	// ok=false with a diagnostic reason and a nil error. A capability the
	// provider does not support is reported by returning an error for
	// which IsCategory(err, ErrCategoryUnsupported) holds; the probe
	// adapter treats it as a skip. Any other error is captured by the
	// adapter as a failed outcome.
	CheckCredentials(ctx context.Context, c Capability) (ok bool, reason Reason, err error)
}

// CredentialFileProvider is implemented by providers whose credentials live
// in local files that must be shipped alongside scheduled work.
type CredentialFileProvider interface {
	// CredentialFileMounts returns a mapping of remote path to local path
	// for the provider's credential files. Paths may start with "~/";
	// entries whose local file does not exist are filtered downstream.
	CredentialFileMounts() map[string]string
}

// IdentityProvider is implemented by providers that can report the identity
// their active credentials belong to, for verbose reporting.
type IdentityProvider interface {
	// ActiveIdentity returns a human-readable description of the active
	// account (ARN, service account email, subscription, ...).
	ActiveIdentity(ctx context.Context) (string, error)
}
