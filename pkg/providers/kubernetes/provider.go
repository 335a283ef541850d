// Package kubernetes provides the Kubernetes credential-check provider
// implementation.
package kubernetes

import (
	"context"
	"fmt"
	"sort"
	"time"

	k8s "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/Maknee/skypilot/pkg/skycheck"
)

// contextProbeTimeout bounds the API server round trip for one context.
const contextProbeTimeout = 15 * time.Second

// ProbeContextFunc checks that one kubeconfig context can reach its API
// server with the local credentials.
type ProbeContextFunc func(restCfg *rest.Config) error

// Provider implements skycheck.Provider for Kubernetes. The compute check
// enumerates kubeconfig contexts and probes each one's API server; the
// per-context results are returned as a structured reason so the caller can
// report individual clusters.
type Provider struct {
	kubeconfigPath string
	probeContext   ProbeContextFunc
}

// ProviderOption configures the Provider.
type ProviderOption func(*Provider)

// WithKubeconfigPath overrides kubeconfig discovery with an explicit path.
func WithKubeconfigPath(path string) ProviderOption {
	return func(p *Provider) {
		p.kubeconfigPath = path
	}
}

// WithContextProbe replaces the per-context API server probe, for testing.
func WithContextProbe(f ProbeContextFunc) ProviderOption {
	return func(p *Provider) {
		p.probeContext = f
	}
}

// New creates a new Kubernetes provider.
func New(opts ...ProviderOption) *Provider {
	p := &Provider{
		probeContext: probeContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// probeContext performs the real API server round trip for one context.
func probeContext(restCfg *rest.Config) error {
	restCfg.Timeout = contextProbeTimeout
	clientset, err := k8s.NewForConfig(restCfg)
	if err != nil {
		return err
	}
	_, err = clientset.Discovery().ServerVersion()
	return err
}

// Name implements skycheck.Provider.
func (p *Provider) Name() skycheck.CloudProvider {
	return skycheck.ProviderKubernetes
}

// Capabilities implements skycheck.Provider.
func (p *Provider) Capabilities() []skycheck.Capability {
	return []skycheck.Capability{skycheck.CapabilityCompute}
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

// CheckCredentials implements skycheck.Provider. The check passes when at
// least one kubeconfig context is reachable; the reason maps every context
// to its individual status.
func (p *Provider) CheckCredentials(ctx context.Context, c skycheck.Capability) (bool, skycheck.Reason, error) {
	if c != skycheck.CapabilityCompute {
		return false, skycheck.Reason{}, skycheck.ErrUnsupported(p.Name(), c)
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if p.kubeconfigPath != "" {
		rules.ExplicitPath = skycheck.ExpandUser(p.kubeconfigPath)
	}
	rawConfig, err := rules.Load()
	if err != nil {
		return false, skycheck.TextReason(fmt.Sprintf("failed to load kubeconfig: %v", err)), nil
	}

	names := make([]string, 0, len(rawConfig.Contexts))
	for name := range rawConfig.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return false, skycheck.TextReason("no kubeconfig contexts found; set up a cluster and a kubeconfig first"), nil
	}

	anyEnabled := false
	ctx2text := make(map[string]string, len(names))
	for _, name := range names {
		if err := p.checkContext(ctx, *rawConfig, name, rules); err != nil {
			ctx2text[name] = fmt.Sprintf("disabled. Reason: %v", err)
			continue
		}
		ctx2text[name] = "enabled"
		anyEnabled = true
	}
	return anyEnabled, skycheck.ContextReason(ctx2text), nil
}

// checkContext builds a client config for one context and probes its API
// server.
func (p *Provider) checkContext(ctx context.Context, rawConfig clientcmdapi.Config, name string, rules *clientcmd.ClientConfigLoadingRules) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clientConfig := clientcmd.NewNonInteractiveClientConfig(rawConfig, name, &clientcmd.ConfigOverrides{}, rules)
	restCfg, err := clientConfig.ClientConfig()
	if err != nil {
		return err
	}
	return p.probeContext(restCfg)
}

// ActiveIdentity implements skycheck.IdentityProvider.
func (p *Provider) ActiveIdentity(ctx context.Context) (string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if p.kubeconfigPath != "" {
		rules.ExplicitPath = skycheck.ExpandUser(p.kubeconfigPath)
	}
	rawConfig, err := rules.Load()
	if err != nil {
		return "", skycheck.ErrAuth("failed to load kubeconfig").
			WithCause(err).WithProvider(p.Name())
	}
	if rawConfig.CurrentContext == "" {
		return "", skycheck.ErrNotFound("kubeconfig current context", "(unset)")
	}
	return fmt.Sprintf("context %q", rawConfig.CurrentContext), nil
}

// CredentialFileMounts implements skycheck.CredentialFileProvider.
func (p *Provider) CredentialFileMounts() map[string]string {
	return map[string]string{
		"~/.kube/config": "~/.kube/config",
	}
}

func init() {
	skycheck.Register(New())
}
