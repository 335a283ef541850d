package gcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/google"

	"github.com/Maknee/skypilot/pkg/skycheck"
)

func TestProvider_Identity(t *testing.T) {
	p := New()
	assert.Equal(t, skycheck.ProviderGCP, p.Name())
	assert.True(t, p.HasCapability(skycheck.CapabilityCompute))
	assert.True(t, p.HasCapability(skycheck.CapabilityStorage))
}

func TestCheckCredentials_ScopePerCapability(t *testing.T) {
	var requested []string
	p := New(
		WithCredentialFinder(func(ctx context.Context, scopes ...string) (*google.Credentials, error) {
			requested = append(requested, scopes...)
			return &google.Credentials{ProjectID: "test-project"}, nil
		}),
		WithTokenInfo(func(ctx context.Context, creds *google.Credentials) (string, error) {
			return "user@example.com", nil
		}),
	)

	ok, _, err := p.CheckCredentials(context.Background(), skycheck.CapabilityCompute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = p.CheckCredentials(context.Background(), skycheck.CapabilityStorage)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{
		"https://www.googleapis.com/auth/cloud-platform",
		"https://www.googleapis.com/auth/devstorage.full_control",
	}, requested)
}

func TestCheckCredentials_MissingCredentialsWithHint(t *testing.T) {
	p := New(WithCredentialFinder(func(ctx context.Context, scopes ...string) (*google.Credentials, error) {
		return nil, errors.New("could not find default credentials")
	}))

	ok, reason, err := p.CheckCredentials(context.Background(), skycheck.CapabilityCompute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason.Text, "could not find default credentials")
	assert.Contains(t, reason.Text, "gcloud auth application-default login")
}

func TestCheckCredentials_TokenExchangeFailure(t *testing.T) {
	p := New(
		WithCredentialFinder(func(ctx context.Context, scopes ...string) (*google.Credentials, error) {
			return &google.Credentials{}, nil
		}),
		WithTokenInfo(func(ctx context.Context, creds *google.Credentials) (string, error) {
			return "", errors.New("invalid_grant")
		}),
	)

	ok, reason, err := p.CheckCredentials(context.Background(), skycheck.CapabilityStorage)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason.Text, "invalid_grant")
}

func TestCheckCredentials_UnsupportedCapability(t *testing.T) {
	p := New()
	_, _, err := p.CheckCredentials(context.Background(), "networking")
	require.Error(t, err)
	assert.True(t, skycheck.IsCategory(err, skycheck.ErrCategoryUnsupported))
}

func TestActiveIdentity_EmailFromTokenInfo(t *testing.T) {
	p := New(
		WithCredentialFinder(func(ctx context.Context, scopes ...string) (*google.Credentials, error) {
			return &google.Credentials{ProjectID: "test-project"}, nil
		}),
		WithTokenInfo(func(ctx context.Context, creds *google.Credentials) (string, error) {
			return "user@example.com", nil
		}),
	)

	identity, err := p.ActiveIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", identity)
}

func TestActiveIdentity_FallsBackToProject(t *testing.T) {
	p := New(
		WithCredentialFinder(func(ctx context.Context, scopes ...string) (*google.Credentials, error) {
			return &google.Credentials{ProjectID: "test-project"}, nil
		}),
		WithTokenInfo(func(ctx context.Context, creds *google.Credentials) (string, error) {
			return "", nil
		}),
	)

	identity, err := p.ActiveIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "project test-project", identity)
}

func TestCredentialFileMounts(t *testing.T) {
	mounts := New().CredentialFileMounts()
	assert.Contains(t, mounts, "~/.config/gcloud/application_default_credentials.json")
}
