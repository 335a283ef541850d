package skycheck

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// CredentialFileMounts returns the remote→local mapping of credential files
// needed to access the registered providers, restricted to files that exist
// locally. Providers in excluded are skipped.
//
// All registered providers are consulted, not only enabled ones: partial
// credentials (for example storage-only access) are still worth shipping.
// Pseudo-providers are included only when their storage probe passes, since
// they carry no persisted enablement state to consult.
func (c *Checker) CredentialFileMounts(ctx context.Context, excluded []CloudProvider) map[string]string {
	excludedSet := make(map[CloudProvider]bool, len(excluded))
	for _, name := range excluded {
		excludedSet[name] = true
	}

	mounts := make(map[string]string)
	for _, p := range c.registry.Providers() {
		if excludedSet[p.Name()] {
			continue
		}
		addExistingMounts(mounts, p)
	}

	for _, p := range c.pseudo {
		if excludedSet[p.Name()] {
			continue
		}
		ok, _, err := p.CheckCredentials(ctx, CapabilityStorage)
		if err != nil || !ok {
			continue
		}
		addExistingMounts(mounts, p)
	}

	return mounts
}

// addExistingMounts merges a provider's credential file mounts into mounts,
// keeping only entries whose local file exists.
func addExistingMounts(mounts map[string]string, p Provider) {
	fp, ok := p.(CredentialFileProvider)
	if !ok {
		return
	}
	for remote, local := range fp.CredentialFileMounts() {
		if _, err := os.Stat(ExpandUser(local)); err == nil {
			mounts[remote] = local
		}
	}
}

// ExpandUser replaces a leading "~/" with the user's home directory.
func ExpandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
