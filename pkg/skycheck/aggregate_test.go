package skycheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateOutcomes_GroupsByProviderAndCapability(t *testing.T) {
	alpha := passing("alpha")
	beta := passing("beta")
	pairs := []Pair{
		probePair(alpha, CapabilityCompute),
		probePair(alpha, CapabilityStorage),
		probePair(beta, CapabilityCompute),
	}
	outcomes := []*Outcome{
		{Provider: "alpha", Capability: CapabilityCompute, OK: true},
		{Provider: "alpha", Capability: CapabilityStorage, OK: false, Reason: TextReason("denied")},
		{Provider: "beta", Capability: CapabilityCompute, OK: true},
	}

	agg := AggregateOutcomes(pairs, outcomes)

	require.Len(t, agg.ByProvider["alpha"], 2)
	assert.True(t, agg.ByProvider["alpha"][0].OK)
	assert.False(t, agg.ByProvider["alpha"][1].OK)
	assert.Equal(t, "denied", agg.ByProvider["alpha"][1].Reason.Text)

	assert.True(t, agg.Passed[CapabilityCompute]["alpha"])
	assert.True(t, agg.Passed[CapabilityCompute]["beta"])
	assert.True(t, agg.Failed[CapabilityStorage]["alpha"])
	assert.False(t, agg.Passed[CapabilityStorage]["alpha"])

	assert.Equal(t, []CloudProvider{"alpha", "beta"}, agg.ProviderNames())
}

func TestAggregateOutcomes_SkipsNilSlots(t *testing.T) {
	alpha := passing("alpha")
	pairs := []Pair{
		probePair(alpha, CapabilityCompute),
		probePair(alpha, CapabilityStorage),
	}
	outcomes := []*Outcome{
		{Provider: "alpha", Capability: CapabilityCompute, OK: true},
		nil,
	}

	agg := AggregateOutcomes(pairs, outcomes)
	require.Len(t, agg.ByProvider["alpha"], 1)
	assert.Empty(t, agg.Failed[CapabilityStorage])
}

func TestAggregateOutcomes_ExtractsStructuredContexts(t *testing.T) {
	k8s := passing("kubernetes", CapabilityCompute)
	contexts := map[string]string{"prod": "enabled", "dev": "disabled. Reason: expired certificate"}
	pairs := []Pair{probePair(k8s, CapabilityCompute)}
	outcomes := []*Outcome{
		{Provider: "kubernetes", Capability: CapabilityCompute, OK: true, Reason: ContextReason(contexts)},
	}

	agg := AggregateOutcomes(pairs, outcomes)
	assert.Equal(t, contexts, agg.Contexts["kubernetes"])
}

func TestAggregate_PseudoExcludedFromPassedAndFailedSets(t *testing.T) {
	real := passing("alpha")
	pseudo := passing("r2", CapabilityStorage)
	pairs := []Pair{
		probePair(real, CapabilityStorage),
		{Provider: pseudo, Name: "r2", Capability: CapabilityStorage, Pseudo: true},
	}
	outcomes := []*Outcome{
		{Provider: "alpha", Capability: CapabilityStorage, OK: true},
		{Provider: "r2", Capability: CapabilityStorage, OK: true},
	}

	agg := AggregateOutcomes(pairs, outcomes)

	// The pseudo-provider is visible in the grouped results but never in
	// the sets that feed reconciliation.
	assert.True(t, agg.Pseudo["r2"])
	require.Len(t, agg.ByProvider["r2"], 1)
	assert.True(t, agg.Passed[CapabilityStorage]["r2"])
	assert.False(t, agg.passedSet(CapabilityStorage)["r2"])
	assert.True(t, agg.passedSet(CapabilityStorage)["alpha"])
}
