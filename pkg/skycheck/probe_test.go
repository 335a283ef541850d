package skycheck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probePair(p Provider, c Capability) Pair {
	return Pair{Provider: p, Name: p.Name(), Capability: c}
}

func TestProbe_Success(t *testing.T) {
	adapter := &ProbeAdapter{}
	p := passing("alpha")

	outcome := adapter.Probe(context.Background(), probePair(p, CapabilityCompute))
	require.NotNil(t, outcome)
	assert.Equal(t, CloudProvider("alpha"), outcome.Provider)
	assert.Equal(t, CapabilityCompute, outcome.Capability)
	assert.True(t, outcome.OK)
	assert.True(t, outcome.Reason.IsZero())
}

func TestProbe_UnsupportedCapabilitySkips(t *testing.T) {
	adapter := &ProbeAdapter{}
	p := passing("storage-only", CapabilityStorage)

	outcome := adapter.Probe(context.Background(), probePair(p, CapabilityCompute))
	assert.Nil(t, outcome)
}

func TestProbe_ErrorBecomesFailedOutcome(t *testing.T) {
	adapter := &ProbeAdapter{}
	p := &fakeProvider{
		name: "broken",
		check: func(ctx context.Context, c Capability) (bool, Reason, error) {
			return false, Reason{}, errors.New("socket closed unexpectedly")
		},
	}

	outcome := adapter.Probe(context.Background(), probePair(p, CapabilityCompute))
	require.NotNil(t, outcome)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Reason.Text, "socket closed unexpectedly")
}

func TestProbe_PanicBecomesFailedOutcome(t *testing.T) {
	adapter := &ProbeAdapter{}
	p := &fakeProvider{
		name: "panicky",
		check: func(ctx context.Context, c Capability) (bool, Reason, error) {
			panic("nil map write")
		},
	}

	outcome := adapter.Probe(context.Background(), probePair(p, CapabilityStorage))
	require.NotNil(t, outcome)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Reason.Text, "probe panicked")
	assert.Contains(t, outcome.Reason.Text, "nil map write")
}

func TestProbe_TextReasonIsTrimmed(t *testing.T) {
	adapter := &ProbeAdapter{}
	p := &fakeProvider{
		name: "messy",
		check: func(ctx context.Context, c Capability) (bool, Reason, error) {
			return false, TextReason("  credentials expired \n"), nil
		},
	}

	outcome := adapter.Probe(context.Background(), probePair(p, CapabilityCompute))
	require.NotNil(t, outcome)
	assert.Equal(t, "credentials expired", outcome.Reason.Text)
}

func TestProbe_StructuredReasonPassesThrough(t *testing.T) {
	adapter := &ProbeAdapter{}
	contexts := map[string]string{"ctx-a": "enabled", "ctx-b": "disabled. Reason: unreachable"}
	p := &fakeProvider{
		name: "clustered",
		check: func(ctx context.Context, c Capability) (bool, Reason, error) {
			return true, ContextReason(contexts), nil
		},
	}

	outcome := adapter.Probe(context.Background(), probePair(p, CapabilityCompute))
	require.NotNil(t, outcome)
	assert.True(t, outcome.OK)
	assert.Equal(t, contexts, outcome.Reason.Contexts)
}

func TestProbe_TimeoutProducesFailedOutcome(t *testing.T) {
	adapter := &ProbeAdapter{Timeout: 20 * time.Millisecond}
	p := &fakeProvider{
		name: "hung",
		check: func(ctx context.Context, c Capability) (bool, Reason, error) {
			// Ignores ctx on purpose.
			time.Sleep(2 * time.Second)
			return true, Reason{}, nil
		},
	}

	start := time.Now()
	outcome := adapter.Probe(context.Background(), probePair(p, CapabilityCompute))
	require.NotNil(t, outcome)
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Reason.Text, "timed out")
	assert.Less(t, time.Since(start), time.Second)
}

func TestProbe_ParentCancellation(t *testing.T) {
	adapter := &ProbeAdapter{Timeout: -1}
	p := &fakeProvider{
		name: "cooperative",
		check: func(ctx context.Context, c Capability) (bool, Reason, error) {
			<-ctx.Done()
			return false, Reason{}, ctx.Err()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := adapter.Probe(ctx, probePair(p, CapabilityCompute))
	require.NotNil(t, outcome)
	assert.False(t, outcome.OK)
	// Cancellation is reported as such, not as an elapsed timeout.
	assert.Contains(t, outcome.Reason.Text, "canceled")
	assert.NotContains(t, outcome.Reason.Text, "timed out")
}
