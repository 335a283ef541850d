// Package azure provides the Azure credential-check provider implementation.
package azure

import (
	"context"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Maknee/skypilot/pkg/skycheck"
)

// Token scopes probed per capability.
const (
	managementScope = "https://management.azure.com/.default"
	storageScope    = "https://storage.azure.com/.default"
)

// credentialHint is appended to failed check reasons.
const credentialHint = "Run: az login"

// TokenCredential mirrors azcore.TokenCredential, abstracted for testing.
type TokenCredential interface {
	GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error)
}

// Provider implements skycheck.Provider for Azure. Each capability is
// verified by acquiring a token for that capability's resource scope through
// the default credential chain (CLI login, environment, managed identity).
type Provider struct {
	credential    TokenCredential
	newCredential func() (TokenCredential, error)

	loadOnce sync.Once
	loadErr  error
}

// ProviderOption configures the Provider.
type ProviderOption func(*Provider)

// WithCredential sets the token credential, for testing.
func WithCredential(cred TokenCredential) ProviderOption {
	return func(p *Provider) {
		p.credential = cred
	}
}

// New creates a new Azure provider.
func New(opts ...ProviderOption) *Provider {
	p := &Provider{
		newCredential: func() (TokenCredential, error) {
			return azidentity.NewDefaultAzureCredential(nil)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements skycheck.Provider.
func (p *Provider) Name() skycheck.CloudProvider {
	return skycheck.ProviderAzure
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

// ensureCredential builds the default credential chain on first use.
// Safe for concurrent probes against the same Provider.
func (p *Provider) ensureCredential() error {
	p.loadOnce.Do(func() {
		if p.credential != nil {
			return
		}
		cred, err := p.newCredential()
		if err != nil {
			p.loadErr = err
			return
		}
		p.credential = cred
	})
	return p.loadErr
}

// CheckCredentials implements skycheck.Provider.
func (p *Provider) CheckCredentials(ctx context.Context, c skycheck.Capability) (bool, skycheck.Reason, error) {
	var scope string
	switch c {
	case skycheck.CapabilityCompute:
		scope = managementScope
	case skycheck.CapabilityStorage:
		scope = storageScope
	default:
		return false, skycheck.Reason{}, skycheck.ErrUnsupported(p.Name(), c)
	}

	if err := p.ensureCredential(); err != nil {
		return false, failure("failed to build Azure credential chain", err), nil
	}
	if _, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{scope}}); err != nil {
		return false, failure(fmt.Sprintf("Azure credentials cannot acquire a token for %s", scope), err), nil
	}
	return true, skycheck.Reason{}, nil
}

// ActiveIdentity implements skycheck.IdentityProvider. The identity is read
// from the claims of a management-scope token.
func (p *Provider) ActiveIdentity(ctx context.Context) (string, error) {
	if err := p.ensureCredential(); err != nil {
		return "", skycheck.ErrAuth("failed to build Azure credential chain").
			WithCause(err).WithProvider(p.Name())
	}
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{managementScope}})
	if err != nil {
		return "", skycheck.ErrAuth("failed to acquire Azure token").
			WithCause(err).WithProvider(p.Name())
	}

	// The token is not verified here; it came straight from the identity
	// service and is only parsed for display.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.Token, claims); err != nil {
		return "", skycheck.ErrInternal("failed to parse Azure token claims").
			WithCause(err).WithProvider(p.Name())
	}
	for _, key := range []string{"upn", "unique_name", "oid"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "unknown identity", nil
}

// CredentialFileMounts implements skycheck.CredentialFileProvider.
func (p *Provider) CredentialFileMounts() map[string]string {
	return map[string]string{
		"~/.azure/azureProfile.json":     "~/.azure/azureProfile.json",
		"~/.azure/msal_token_cache.json": "~/.azure/msal_token_cache.json",
	}
}

// failure builds a failed-check reason with the credential setup hint.
func failure(msg string, err error) skycheck.Reason {
	return skycheck.TextReason(fmt.Sprintf("%s: %v\n%s", msg, err, credentialHint))
}

func init() {
	skycheck.Register(New())
}
