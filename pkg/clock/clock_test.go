package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualOnlyAdvancesWhenTold(t *testing.T) {
	var m Manual
	require.EqualValues(t, 0, m.Now())
	m.Set(10)
	require.EqualValues(t, 10, m.Now())
	require.EqualValues(t, 15, m.Advance(5))
	require.EqualValues(t, 15, m.Now())
}

func TestRealAdvancesOnTicker(t *testing.T) {
	r := NewReal(5 * time.Millisecond)
	defer r.Close()
	require.EqualValues(t, 0, r.Now())
	require.Eventually(t, func() bool {
		return r.Now() > 0
	}, 500*time.Millisecond, 10*time.Millisecond)
}
