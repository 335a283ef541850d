package skycheck

import (
	"context"
	"sync/atomic"
)

// fakeProvider is a configurable in-memory Provider used across the package
// tests.
type fakeProvider struct {
	name   CloudProvider
	caps   []Capability
	check  func(ctx context.Context, c Capability) (bool, Reason, error)
	calls  atomic.Int64
	mounts map[string]string
	ident  string
}

func (p *fakeProvider) Name() CloudProvider {
	return p.name
}

func (p *fakeProvider) Capabilities() []Capability {
	if p.caps != nil {
		return p.caps
	}
	return AllCapabilities
}

func (p *fakeProvider) HasCapability(c Capability) bool {
	for _, capability := range p.Capabilities() {
		if capability == c {
			return true
		}
	}
	return false
}

func (p *fakeProvider) CheckCredentials(ctx context.Context, c Capability) (bool, Reason, error) {
	p.calls.Add(1)
	if !p.HasCapability(c) {
		return false, Reason{}, ErrUnsupported(p.name, c)
	}
	if p.check != nil {
		return p.check(ctx, c)
	}
	return true, Reason{}, nil
}

// fakeFileProvider additionally implements CredentialFileProvider.
type fakeFileProvider struct {
	fakeProvider
}

func (p *fakeFileProvider) CredentialFileMounts() map[string]string {
	return p.mounts
}

// fakeIdentityProvider additionally implements IdentityProvider.
type fakeIdentityProvider struct {
	fakeProvider
}

func (p *fakeIdentityProvider) ActiveIdentity(ctx context.Context) (string, error) {
	return p.ident, nil
}

// passing returns a provider whose every declared check succeeds.
func passing(name CloudProvider, caps ...Capability) *fakeProvider {
	p := &fakeProvider{name: name}
	if len(caps) > 0 {
		p.caps = caps
	}
	return p
}

// failing returns a provider whose every declared check fails with msg.
func failing(name CloudProvider, msg string, caps ...Capability) *fakeProvider {
	p := &fakeProvider{
		name: name,
		check: func(ctx context.Context, c Capability) (bool, Reason, error) {
			return false, TextReason(msg), nil
		},
	}
	if len(caps) > 0 {
		p.caps = caps
	}
	return p
}

// newTestRegistry builds an isolated registry with the given providers.
func newTestRegistry(providers ...Provider) *Registry {
	reg := NewRegistry()
	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			panic(err)
		}
	}
	return reg
}
