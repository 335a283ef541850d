package skycheck

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckError_BuildersAndFormat(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrNetwork("endpoint unreachable").
		WithProvider("aws").
		WithCapability(CapabilityStorage).
		WithCause(cause).
		WithDetail("endpoint", "s3.amazonaws.com")

	assert.Contains(t, err.Error(), "aws")
	assert.Contains(t, err.Error(), "endpoint unreachable")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, CapabilityStorage, err.Capability)
	assert.Equal(t, "s3.amazonaws.com", err.Details["endpoint"])
	assert.ErrorIs(t, err, cause)
}

func TestIsCategory(t *testing.T) {
	err := ErrUnsupported("cloudflare", CapabilityCompute)
	assert.True(t, IsCategory(err, ErrCategoryUnsupported))
	assert.False(t, IsCategory(err, ErrCategoryAuth))

	wrapped := fmt.Errorf("probing: %w", err)
	assert.True(t, IsCategory(wrapped, ErrCategoryUnsupported))

	assert.False(t, IsCategory(errors.New("plain"), ErrCategoryInternal))
	assert.False(t, IsCategory(nil, ErrCategoryInternal))
}

func TestNoCloudAccessError(t *testing.T) {
	var err error = &NoCloudAccessError{Hint: "run the check"}

	var noAccess *NoCloudAccessError
	require.True(t, errors.As(err, &noAccess))
	assert.Contains(t, err.Error(), "run the check")
}
