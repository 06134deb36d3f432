package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaContains(t *testing.T) {
	a, frames := NewArena(4)
	for _, f := range frames {
		require.True(t, a.Contains(f))
	}
	require.False(t, a.Contains(frames[0]+1))
	require.False(t, a.Contains(frames[len(frames)-1]+Size))
}

func TestPoisoningLeavesFirstByteIntact(t *testing.T) {
	a, frames := NewArena(2)
	f := frames[0]

	a.Poison(f, PoisonFreed)
	require.Equal(t, PoisonFreed, a.FirstByte(f))

	a.SetNext(f, frames[1])
	require.Equal(t, PoisonFreed, a.FirstByte(f), "link word must not touch byte 0")
	require.Equal(t, frames[1], a.Next(f))

	a.Poison(f, PoisonAllocated)
	require.Equal(t, PoisonAllocated, a.FirstByte(f))
}

func TestNextRoundTrips(t *testing.T) {
	a, frames := NewArena(3)
	a.SetNext(frames[0], frames[1])
	a.SetNext(frames[1], frames[2])
	a.SetNext(frames[2], 0)

	require.Equal(t, frames[1], a.Next(frames[0]))
	require.Equal(t, frames[2], a.Next(frames[1]))
	require.Equal(t, Frame(0), a.Next(frames[2]))
}
