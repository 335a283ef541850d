package skycheck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	return path
}

func TestCredentialFileMounts_OnlyExistingFiles(t *testing.T) {
	dir := t.TempDir()
	existing := touch(t, filepath.Join(dir, "credentials"))
	missing := filepath.Join(dir, "never-written")

	p := &fakeFileProvider{fakeProvider: fakeProvider{
		name:   "alpha",
		mounts: map[string]string{"~/.alpha/credentials": existing, "~/.alpha/extra": missing},
	}}
	checker := NewChecker(WithRegistry(newTestRegistry(p)))

	mounts := checker.CredentialFileMounts(context.Background(), nil)
	assert.Equal(t, map[string]string{"~/.alpha/credentials": existing}, mounts)
}

func TestCredentialFileMounts_ExcludedProvidersSkipped(t *testing.T) {
	dir := t.TempDir()
	p := &fakeFileProvider{fakeProvider: fakeProvider{
		name:   "alpha",
		mounts: map[string]string{"~/.alpha/credentials": touch(t, filepath.Join(dir, "credentials"))},
	}}
	checker := NewChecker(WithRegistry(newTestRegistry(p)))

	mounts := checker.CredentialFileMounts(context.Background(), []CloudProvider{"alpha"})
	assert.Empty(t, mounts)
}

func TestCredentialFileMounts_PseudoRequiresPassingStorageProbe(t *testing.T) {
	dir := t.TempDir()
	mountPath := touch(t, filepath.Join(dir, "r2.credentials"))

	working := &fakeFileProvider{fakeProvider: fakeProvider{
		name:   "r2",
		caps:   []Capability{CapabilityStorage},
		mounts: map[string]string{"~/.cloudflare/r2.credentials": mountPath},
	}}
	checker := NewChecker(
		WithRegistry(NewRegistry()),
		WithPseudoProvider(working),
	)
	mounts := checker.CredentialFileMounts(context.Background(), nil)
	assert.Equal(t, map[string]string{"~/.cloudflare/r2.credentials": mountPath}, mounts)

	broken := &fakeFileProvider{fakeProvider: fakeProvider{
		name: "r2",
		caps: []Capability{CapabilityStorage},
		check: func(ctx context.Context, c Capability) (bool, Reason, error) {
			return false, TextReason("bad keys"), nil
		},
		mounts: map[string]string{"~/.cloudflare/r2.credentials": mountPath},
	}}
	checker = NewChecker(
		WithRegistry(NewRegistry()),
		WithPseudoProvider(broken),
	)
	mounts = checker.CredentialFileMounts(context.Background(), nil)
	assert.Empty(t, mounts)
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".aws", "credentials"), ExpandUser("~/.aws/credentials"))
	assert.Equal(t, home, ExpandUser("~"))
	assert.Equal(t, "/etc/config", ExpandUser("/etc/config"))
	assert.Equal(t, "relative/path", ExpandUser("relative/path"))
}
