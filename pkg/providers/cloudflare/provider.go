// Package cloudflare provides the Cloudflare R2 credential-check provider
// implementation. R2 is an object-storage-only service reached through the
// S3-compatible API; the provider piggybacks on another cloud's
// infrastructure and is therefore registered as a pseudo-provider rather
// than a standalone cloud.
package cloudflare

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Maknee/skypilot/pkg/skycheck"
)

const (
	// accountIDFile holds the Cloudflare account ID that anchors the R2
	// endpoint URL.
	accountIDFile = "~/.cloudflare/accountid"

	// credentialsFile holds the R2 access keys in AWS shared-credentials
	// format.
	credentialsFile = "~/.cloudflare/r2.credentials"

	// credentialsProfile is the profile name expected in credentialsFile.
	credentialsProfile = "r2"
)

// credentialHint is appended to failed check reasons so the operator knows
// how to set up R2 access.
const credentialHint = "Place the account ID in ~/.cloudflare/accountid and R2 keys in ~/.cloudflare/r2.credentials under the [r2] profile."

// S3API abstracts the S3-compatible operations used by the provider, for
// testing.
type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
}

// Provider implements skycheck.Provider for Cloudflare R2. Storage access is
// verified by listing R2 buckets through the account-scoped S3 endpoint.
type Provider struct {
	s3Client S3API

	loadOnce sync.Once
	loadErr  error
}

// ProviderOption configures the Provider.
type ProviderOption func(*Provider)

// WithS3Client sets the S3-compatible client.
func WithS3Client(client S3API) ProviderOption {
	return func(p *Provider) {
		p.s3Client = client
	}
}

// New creates a new Cloudflare R2 provider. Without options, the client is
// built lazily from the local R2 credential files on first use.
func New(opts ...ProviderOption) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements skycheck.Provider.
func (p *Provider) Name() skycheck.CloudProvider {
	return skycheck.ProviderCloudflare
}

// Capabilities implements skycheck.Provider.
func (p *Provider) Capabilities() []skycheck.Capability {
	return []skycheck.Capability{skycheck.CapabilityStorage}
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

// accountID reads the Cloudflare account ID from the local config file.
func accountID() (string, error) {
	data, err := os.ReadFile(skycheck.ExpandUser(accountIDFile))
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("%s is empty", accountIDFile)
	}
	return id, nil
}

// ensureClient builds the real S3-compatible client from the R2 credential
// files, once.
func (p *Provider) ensureClient(ctx context.Context) error {
	p.loadOnce.Do(func() {
		if p.s3Client != nil {
			return
		}
		id, err := accountID()
		if err != nil {
			p.loadErr = err
			return
		}
		cfg, err := config.LoadDefaultConfig(ctx,
			config.WithSharedCredentialsFiles([]string{skycheck.ExpandUser(credentialsFile)}),
			config.WithSharedConfigProfile(credentialsProfile),
			config.WithRegion("auto"),
		)
		if err != nil {
			p.loadErr = err
			return
		}
		endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", id)
		p.s3Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	})
	return p.loadErr
}

// CheckCredentials implements skycheck.Provider.
func (p *Provider) CheckCredentials(ctx context.Context, c skycheck.Capability) (bool, skycheck.Reason, error) {
	if c != skycheck.CapabilityStorage {
		return false, skycheck.Reason{}, skycheck.ErrUnsupported(p.Name(), c)
	}
	if err := p.ensureClient(ctx); err != nil {
		return false, failure("failed to load Cloudflare R2 configuration", err), nil
	}
	if _, err := p.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{}); err != nil {
		return false, failure("Cloudflare R2 credentials cannot list buckets", err), nil
	}
	return true, skycheck.Reason{}, nil
}

// CredentialFileMounts implements skycheck.CredentialFileProvider.
func (p *Provider) CredentialFileMounts() map[string]string {
	return map[string]string{
		accountIDFile:   accountIDFile,
		credentialsFile: credentialsFile,
	}
}

// failure builds a failed-check reason with the credential setup hint.
func failure(msg string, err error) skycheck.Reason {
	return skycheck.TextReason(fmt.Sprintf("%s: %v\n%s", msg, err, credentialHint))
}
