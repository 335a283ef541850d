// Package gcp provides the GCP credential-check provider implementation.
package gcp

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/Maknee/skypilot/pkg/skycheck"
)

// OAuth scopes probed per capability.
const (
	computeScope = "https://www.googleapis.com/auth/cloud-platform"
	storageScope = "https://www.googleapis.com/auth/devstorage.full_control"
)

// credentialHint is appended to failed check reasons.
const credentialHint = "Run: gcloud auth application-default login"

// TokenInfoFunc validates application-default credentials by performing a
// tokeninfo round trip and returns the authenticated email.
type TokenInfoFunc func(ctx context.Context, creds *google.Credentials) (string, error)

// Provider implements skycheck.Provider for GCP. Both capabilities are
// verified by resolving application-default credentials for the capability's
// OAuth scope and exchanging them against the tokeninfo endpoint.
type Provider struct {
	findCredentials func(ctx context.Context, scopes ...string) (*google.Credentials, error)
	tokenInfo       TokenInfoFunc
}

// ProviderOption configures the Provider.
type ProviderOption func(*Provider)

// WithCredentialFinder replaces default-credential discovery, for testing.
func WithCredentialFinder(f func(ctx context.Context, scopes ...string) (*google.Credentials, error)) ProviderOption {
	return func(p *Provider) {
		p.findCredentials = f
	}
}

// WithTokenInfo replaces the tokeninfo round trip, for testing.
func WithTokenInfo(f TokenInfoFunc) ProviderOption {
	return func(p *Provider) {
		p.tokenInfo = f
	}
}

// New creates a new GCP provider.
func New(opts ...ProviderOption) *Provider {
	p := &Provider{
		findCredentials: google.FindDefaultCredentials,
		tokenInfo:       tokenInfo,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// tokenInfo performs the real tokeninfo round trip.
func tokenInfo(ctx context.Context, creds *google.Credentials) (string, error) {
	svc, err := goauth2.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return "", err
	}
	info, err := svc.Tokeninfo().Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return info.Email, nil
}

// Name implements skycheck.Provider.
func (p *Provider) Name() skycheck.CloudProvider {
	return skycheck.ProviderGCP
}

// Capabilities implements skycheck.Provider.
func (p *Provider) Capabilities() []skycheck.Capability {
	return []skycheck.Capability{
		skycheck.CapabilityCompute,
		skycheck.CapabilityStorage,
	}
}

// HasCapability implements skycheck.Provider.
func (p *Provider) HasCapability(c skycheck.Capability) bool {
	for _, capability := range p.Capabilities() {
		if capability == c {
			return true
		}
	}
	return false
}

// CheckCredentials implements skycheck.Provider.
func (p *Provider) CheckCredentials(ctx context.Context, c skycheck.Capability) (bool, skycheck.Reason, error) {
	var scope string
	switch c {
	case skycheck.CapabilityCompute:
		scope = computeScope
	case skycheck.CapabilityStorage:
		scope = storageScope
	default:
		return false, skycheck.Reason{}, skycheck.ErrUnsupported(p.Name(), c)
	}

	creds, err := p.findCredentials(ctx, scope)
	if err != nil {
		return false, failure("GCP application-default credentials not found", err), nil
	}
	if _, err := p.tokenInfo(ctx, creds); err != nil {
		return false, failure("GCP credentials could not be exchanged for a token", err), nil
	}
	return true, skycheck.Reason{}, nil
}

// ActiveIdentity implements skycheck.IdentityProvider.
func (p *Provider) ActiveIdentity(ctx context.Context) (string, error) {
	creds, err := p.findCredentials(ctx, computeScope)
	if err != nil {
		return "", skycheck.ErrAuth("GCP application-default credentials not found").
			WithCause(err).WithProvider(p.Name())
	}
	email, err := p.tokenInfo(ctx, creds)
	if err != nil {
		return "", skycheck.ErrAuth("failed to resolve GCP identity").
			WithCause(err).WithProvider(p.Name())
	}
	if email == "" {
		email = fmt.Sprintf("project %s", creds.ProjectID)
	}
	return email, nil
}

// CredentialFileMounts implements skycheck.CredentialFileProvider.
func (p *Provider) CredentialFileMounts() map[string]string {
	return map[string]string{
		"~/.config/gcloud/application_default_credentials.json": "~/.config/gcloud/application_default_credentials.json",
	}
}

// failure builds a failed-check reason with the credential setup hint.
func failure(msg string, err error) skycheck.Reason {
	return skycheck.TextReason(fmt.Sprintf("%s: %v\n%s", msg, err, credentialHint))
}

func init() {
	skycheck.Register(New())
}
