package clock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUniformDefensiveBounds(t *testing.T) {
	v, err := Uniform(5, 5)
	require.NoError(t, err)
	require.EqualValues(t, 5, v)

	v, err = Uniform(6, 5)
	require.NoError(t, err)
	require.EqualValues(t, 5, v)
}

func TestUniformWithinRange(t *testing.T) {
	for i := 0; i < 256; i++ {
		v, err := Uniform(10, 20)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, int64(10))
		require.LessOrEqual(t, v, int64(20))
	}
}

func TestNowMSMonotonic(t *testing.T) {
	c := New()
	a := c.NowMS()
	b := c.NowMS()
	require.GreaterOrEqual(t, b, a)
}

func TestExceedsWire(t *testing.T) {
	require.False(t, ExceedsWire(0))
	require.False(t, ExceedsWire(MaxWireMillis))
	require.True(t, ExceedsWire(MaxWireMillis+1))
	require.True(t, ExceedsWire(-1))
}
