package shmbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingAcquireCyclesFreeSlots(t *testing.T) {
	r, err := New(4, 4)
	require.NoError(t, err)
	defer r.Close()

	a := r.Acquire()
	require.NotNil(t, a)
	r.MarkInFlight(a)

	b := r.Acquire()
	require.NotNil(t, b)
	require.NotSame(t, a, b)
	r.MarkInFlight(b)

	require.Nil(t, r.Acquire())
}

func TestRingReleaseReclaimsSlot(t *testing.T) {
	r, err := New(4, 4)
	require.NoError(t, err)
	defer r.Close()

	a := r.Acquire()
	r.MarkInFlight(a)
	b := r.Acquire()
	r.MarkInFlight(b)
	require.Nil(t, r.Acquire())

	r.Release(a)
	require.Equal(t, Returned, a.State())

	reclaimed := r.Acquire()
	require.Same(t, a, reclaimed)
	require.Equal(t, Free, reclaimed.State())
}

func TestSlotDimensions(t *testing.T) {
	r, err := New(8, 2)
	require.NoError(t, err)
	defer r.Close()

	s := r.Acquire()
	require.Equal(t, int32(8), s.Width)
	require.Equal(t, int32(2), s.Height)
	require.Equal(t, int32(32), s.Stride)
	require.Equal(t, int32(64), s.Size())
	require.Len(t, s.Pix, 64)
}
