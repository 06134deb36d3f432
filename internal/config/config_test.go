package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	alloc, cache := Default()
	require.NoError(t, alloc.Validate())
	require.NoError(t, cache.Validate())
}

func TestAllocatorValidateRejectsBadValues(t *testing.T) {
	require.Error(t, Allocator{NCPU: 0, Frames: 1}.Validate())
	require.Error(t, Allocator{NCPU: 1, Frames: 0}.Validate())
	require.NoError(t, Allocator{NCPU: 1, Frames: 1}.Validate())
}

func TestCacheValidateRejectsBadValues(t *testing.T) {
	require.Error(t, Cache{NBUF: 0, BSize: 1, Buckets: 1}.Validate())
	require.Error(t, Cache{NBUF: 1, BSize: 0, Buckets: 1}.Validate())
	require.Error(t, Cache{NBUF: 1, BSize: 1, Buckets: 0}.Validate())
	require.NoError(t, Cache{NBUF: 1, BSize: 1, Buckets: 1}.Validate())
}
