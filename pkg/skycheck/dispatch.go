package skycheck

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Dispatcher fans probe tasks out concurrently and collects one outcome slot
// per eligible pair. Probes share no mutable state, so no locking is needed
// among them; the only coordination point is the final join.
type Dispatcher struct {
	// Adapter performs the individual probes.
	Adapter *ProbeAdapter

	// Limit bounds concurrent probes. Zero or negative means unbounded.
	Limit int
}

// NewDispatcher creates a Dispatcher with the given probe adapter.
func NewDispatcher(adapter *ProbeAdapter) *Dispatcher {
	return &Dispatcher{Adapter: adapter}
}

// Run executes every probe concurrently and returns outcomes positionally
// aligned with pairs; a nil slot means the pair was skipped as unsupported.
// The result order is recoverable by zipping with the input; no cross-provider
// completion order is guaranteed.
//
// Run tolerates an empty input and always runs every pair to completion: a
// probe failure or timeout never cancels the remaining probes.
func (d *Dispatcher) Run(ctx context.Context, pairs []Pair) []*Outcome {
	outcomes := make([]*Outcome, len(pairs))
	if len(pairs) == 0 {
		return outcomes
	}

	g := new(errgroup.Group)
	if d.Limit > 0 {
		g.SetLimit(d.Limit)
	}
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			// The adapter converts every failure mode to data, so the
			// group never observes an error and never cancels peers.
			outcomes[i] = d.Adapter.Probe(ctx, pair)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
