package skycheck

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// DefaultProbeTimeout bounds a single credential probe. A hung provider
// yields a failed outcome instead of stalling the whole run.
const DefaultProbeTimeout = 2 * time.Minute

// ProbeAdapter wraps a provider's native credential check into a uniform
// Outcome, normalizing error and return shapes. It is the isolation boundary
// that prevents one misbehaving provider from aborting a verification pass.
type ProbeAdapter struct {
	// Timeout bounds each probe. Zero means DefaultProbeTimeout; negative
	// disables the bound.
	Timeout time.Duration
}

type probeResult struct {
	ok     bool
	reason Reason
	err    error
}

// Probe runs one credential check and converts every failure mode to data.
//
// A nil return means the pair was skipped because the provider reported the
// capability as unsupported. Any other error, panic, or timeout produces a
// failed Outcome whose reason carries the diagnostic; probes never propagate
// errors to the caller.
func (a *ProbeAdapter) Probe(ctx context.Context, pair Pair) *Outcome {
	timeout := a.Timeout
	if timeout == 0 {
		timeout = DefaultProbeTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// The provider call runs in its own goroutine so that a probe which
	// ignores ctx cannot block the pass past its deadline.
	ch := make(chan probeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- probeResult{err: ErrInternal(fmt.Sprintf("probe panicked: %v\n%s", r, debug.Stack())).
					WithProvider(pair.Name).WithCapability(pair.Capability)}
			}
		}()
		ok, reason, err := pair.Provider.CheckCredentials(ctx, pair.Capability)
		ch <- probeResult{ok: ok, reason: reason, err: err}
	}()

	select {
	case res := <-ch:
		return a.outcome(pair, res)
	case <-ctx.Done():
		text := fmt.Sprintf("credential check timed out after %s", timeout)
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			text = fmt.Sprintf("credential check canceled: %v", ctx.Err())
		}
		return &Outcome{
			Provider:   pair.Name,
			Capability: pair.Capability,
			OK:         false,
			Reason:     TextReason(text),
		}
	}
}

// outcome normalizes a raw probe result into an Outcome.
func (a *ProbeAdapter) outcome(pair Pair, res probeResult) *Outcome {
	if res.err != nil {
		if IsCategory(res.err, ErrCategoryUnsupported) {
			return nil
		}
		return &Outcome{
			Provider:   pair.Name,
			Capability: pair.Capability,
			OK:         false,
			Reason:     TextReason(res.err.Error()),
		}
	}

	reason := res.reason
	if !reason.Structured() {
		reason = Reason{Text: strings.TrimSpace(reason.Text)}
	}
	return &Outcome{
		Provider:   pair.Name,
		Capability: pair.Capability,
		OK:         res.ok,
		Reason:     reason,
	}
}
