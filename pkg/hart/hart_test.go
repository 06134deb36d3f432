package hart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPinBindsIDIntoContext(t *testing.T) {
	ctx := context.Background()
	var seen ID
	var ok bool
	Pin(ctx, ID(3), func(pinned context.Context) {
		seen, ok = From(pinned)
	})
	require.True(t, ok)
	require.Equal(t, ID(3), seen)
}

func TestFromMissingContextReturnsFalse(t *testing.T) {
	_, ok := From(context.Background())
	require.False(t, ok)
}

func TestRegistryLeaseRoundRobins(t *testing.T) {
	r := NewRegistry(3)
	require.Equal(t, 3, r.N())
	require.Equal(t, ID(0), r.Lease())
	require.Equal(t, ID(1), r.Lease())
	require.Equal(t, ID(2), r.Lease())
	require.Equal(t, ID(0), r.Lease())
}

func TestNewRegistryRejectsNonPositive(t *testing.T) {
	require.Panics(t, func() { NewRegistry(0) })
}
