package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func confirmOutput(t *testing.T, m *Model, r Rect) int {
	t.Helper()
	idx, err := m.Attach("test")
	require.NoError(t, err)
	require.NoError(t, m.StagePending(idx, r))
	require.NoError(t, m.Confirm(idx))
	return idx
}

func TestSingleOutputSpace(t *testing.T) {
	m := New()
	confirmOutput(t, m, Rect{X: 0, Y: 0, Width: 1920, Height: 1080})
	require.Equal(t, Space{OriginX: 0, OriginY: 0, Width: 1920, Height: 1080}, m.Space)
}

func TestZeroGeometryDiscarded(t *testing.T) {
	m := New()
	idx, err := m.Attach("test")
	require.NoError(t, err)
	require.NoError(t, m.StagePending(idx, Rect{}))
	require.NoError(t, m.Confirm(idx))
	_, ok := m.Confirmed(idx)
	require.False(t, ok)
}

func TestTwoAdjacentOutputsConnected(t *testing.T) {
	m := New()
	confirmOutput(t, m, Rect{X: 0, Y: 0, Width: 1000, Height: 1000})
	confirmOutput(t, m, Rect{X: 1000, Y: 0, Width: 1000, Height: 1000})
	require.Equal(t, Space{OriginX: 0, OriginY: 0, Width: 2000, Height: 1000}, m.Space)
}

func TestCornerTouchIsConnected(t *testing.T) {
	m := New()
	confirmOutput(t, m, Rect{X: 0, Y: 0, Width: 1000, Height: 1000})
	// B touches A only at the single corner pixel (1000,1000).
	confirmOutput(t, m, Rect{X: 1000, Y: 1000, Width: 500, Height: 500})
	require.Equal(t, Space{OriginX: 0, OriginY: 0, Width: 1500, Height: 1500}, m.Space)
}

func TestGapIsFatal(t *testing.T) {
	m := New()
	idxA, err := m.Attach("a")
	require.NoError(t, err)
	require.NoError(t, m.StagePending(idxA, Rect{X: 0, Y: 0, Width: 1000, Height: 1000}))
	require.NoError(t, m.Confirm(idxA))

	idxB, err := m.Attach("b")
	require.NoError(t, err)
	require.NoError(t, m.StagePending(idxB, Rect{X: 2000, Y: 0, Width: 1000, Height: 1000}))
	err = m.Confirm(idxB)
	require.Error(t, err)
}

func TestAbsToLocalRoundTrip(t *testing.T) {
	m := New()
	idx := confirmOutput(t, m, Rect{X: 1000, Y: 500, Width: 800, Height: 600})

	x, y, err := m.LocalToAbs(10, 20, idx)
	require.NoError(t, err)

	gotIdx, lx, ly, valid := m.AbsToLocal(x, y)
	require.True(t, valid)
	require.Equal(t, idx, gotIdx)
	require.EqualValues(t, 10, lx)
	require.EqualValues(t, 20, ly)
}

func TestAbsToLocalVoid(t *testing.T) {
	m := New()
	confirmOutput(t, m, Rect{X: 0, Y: 0, Width: 1000, Height: 1000})
	_, _, _, valid := m.AbsToLocal(5000, 5000)
	require.False(t, valid)
}
