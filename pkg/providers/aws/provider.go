// Package aws provides the AWS credential-check provider implementation.
package aws

import (
	"context"
	"fmt"
	"strings"
	"sync"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/Maknee/skypilot/pkg/skycheck"
)

// credentialHint is appended to failed check reasons so the operator knows
// how to set up credentials.
const credentialHint = "Run: aws configure"

// STSAPI abstracts the STS operations used by the provider, for testing.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// S3API abstracts the S3 operations used by the provider, for testing.
type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
}

// IAMAPI abstracts the IAM operations used by the provider, for testing.
type IAMAPI interface {
	ListAccountAliases(ctx context.Context, params *iam.ListAccountAliasesInput, optFns ...func(*iam.Options)) (*iam.ListAccountAliasesOutput, error)
}

// Provider implements skycheck.Provider for AWS. Compute access is verified
// with STS GetCallerIdentity; object storage access with S3 ListBuckets.
type Provider struct {
	stsClient STSAPI
	s3Client  S3API
	iamClient IAMAPI

	loadOnce sync.Once
	loadErr  error
}

// ProviderOption configures the Provider.
type ProviderOption func(*Provider)

// WithSTSClient sets the STS client.
func WithSTSClient(client STSAPI) ProviderOption {
	return func(p *Provider) {
		p.stsClient = client
	}
}

// WithS3Client sets the S3 client.
func WithS3Client(client S3API) ProviderOption {
	return func(p *Provider) {
		p.s3Client = client
	}
}

// WithIAMClient sets the IAM client.
func WithIAMClient(client IAMAPI) ProviderOption {
	return func(p *Provider) {
		p.iamClient = client
	}
}

// New creates a new AWS provider. Without options, SDK clients are built
// lazily from the default credential chain on first use.
func New(opts ...ProviderOption) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements skycheck.Provider.
func (p *Provider) Name() skycheck.CloudProvider {
	return skycheck.ProviderAWS
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

// ensureClients builds the real SDK clients from the default credential
// chain, once.
func (p *Provider) ensureClients(ctx context.Context) error {
	p.loadOnce.Do(func() {
		if p.stsClient != nil && p.s3Client != nil && p.iamClient != nil {
			return
		}
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			p.loadErr = err
			return
		}
		if p.stsClient == nil {
			p.stsClient = sts.NewFromConfig(cfg)
		}
		if p.s3Client == nil {
			p.s3Client = s3.NewFromConfig(cfg)
		}
		if p.iamClient == nil {
			p.iamClient = iam.NewFromConfig(cfg)
		}
	})
	return p.loadErr
}

// CheckCredentials implements skycheck.Provider.
func (p *Provider) CheckCredentials(ctx context.Context, c skycheck.Capability) (bool, skycheck.Reason, error) {
	if !p.HasCapability(c) {
		return false, skycheck.Reason{}, skycheck.ErrUnsupported(p.Name(), c)
	}
	if err := p.ensureClients(ctx); err != nil {
		return false, failure("failed to load AWS configuration", err), nil
	}

	switch c {
	case skycheck.CapabilityCompute:
		if _, err := p.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
			return false, failure("AWS credentials are not valid for compute", err), nil
		}
		return true, skycheck.Reason{}, nil
	case skycheck.CapabilityStorage:
		if _, err := p.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{}); err != nil {
			return false, failure("AWS credentials cannot access S3", err), nil
		}
		return true, skycheck.Reason{}, nil
	default:
		return false, skycheck.Reason{}, skycheck.ErrUnsupported(p.Name(), c)
	}
}

// ActiveIdentity implements skycheck.IdentityProvider.
func (p *Provider) ActiveIdentity(ctx context.Context) (string, error) {
	if err := p.ensureClients(ctx); err != nil {
		return "", skycheck.ErrAuth("failed to load AWS configuration").
			WithCause(err).WithProvider(p.Name())
	}
	out, err := p.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", skycheck.ErrAuth("failed to get caller identity").
			WithCause(err).WithProvider(p.Name())
	}
	identity := awssdk.ToString(out.Arn)

	// The account alias is best effort; not all identities may list it.
	if aliases, err := p.iamClient.ListAccountAliases(ctx, &iam.ListAccountAliasesInput{}); err == nil && len(aliases.AccountAliases) > 0 {
		identity = fmt.Sprintf("%s (%s)", identity, strings.Join(aliases.AccountAliases, ", "))
	}
	return identity, nil
}

// CredentialFileMounts implements skycheck.CredentialFileProvider.
func (p *Provider) CredentialFileMounts() map[string]string {
	return map[string]string{
		"~/.aws/credentials": "~/.aws/credentials",
		"~/.aws/config":      "~/.aws/config",
	}
}

// failure builds a failed-check reason with the credential setup hint.
func failure(msg string, err error) skycheck.Reason {
	return skycheck.TextReason(fmt.Sprintf("%s: %v\n%s", msg, err, credentialHint))
}

func init() {
	skycheck.Register(New())
}
