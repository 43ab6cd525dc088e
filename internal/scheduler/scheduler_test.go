package scheduler

import (
	"testing"

	"github.com/bnema/kloakd/internal/clock"
	"github.com/bnema/kloakd/internal/packet"
	"github.com/stretchr/testify/require"
)

func TestEnqueueMonotonicReleaseTimes(t *testing.T) {
	s := New(clock.New(), 100)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.EnqueueDevice(packet.DeviceEvent{Code: uint16(i)}))
	}
	require.Equal(t, 5, s.Len())
	require.NoError(t, s.queue.Validate())
}

func TestPointerMoveCoalescing(t *testing.T) {
	s := New(clock.New(), 100)
	require.NoError(t, s.EnqueuePointerMove(packet.PointerMove{X: 10, Y: 10}))
	require.NoError(t, s.EnqueuePointerMove(packet.PointerMove{X: 20, Y: 20}))
	require.NoError(t, s.EnqueuePointerMove(packet.PointerMove{X: 30, Y: 30}))

	require.Equal(t, 1, s.Len())
	head, ok := s.queue.PeekHead()
	require.True(t, ok)
	require.Equal(t, packet.PointerMove{X: 30, Y: 30}, head.Move)
}

func TestDeviceEventsNeverCoalesce(t *testing.T) {
	s := New(clock.New(), 100)
	require.NoError(t, s.EnqueueDevice(packet.DeviceEvent{Code: 1}))
	require.NoError(t, s.EnqueuePointerMove(packet.PointerMove{X: 1, Y: 1}))
	require.NoError(t, s.EnqueueDevice(packet.DeviceEvent{Code: 2}))
	require.Equal(t, 3, s.Len())
}

func TestZeroDelayReleaseReproducesPayload(t *testing.T) {
	s := New(clock.New(), 0)
	require.NoError(t, s.EnqueueDevice(packet.DeviceEvent{EventKind: packet.DeviceEventKey, Code: 30, Pressed: true}))

	var got packet.DeviceEvent
	n, err := s.ReleaseDue(func(ev packet.DeviceEvent, _ int64) error {
		got = ev
		return nil
	}, func(packet.PointerMove, int64) error { return nil })

	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, packet.DeviceEvent{EventKind: packet.DeviceEventKey, Code: 30, Pressed: true}, got)
}

func TestDrainDeviceRemovesMatchingPackets(t *testing.T) {
	s := New(clock.New(), 1000)
	require.NoError(t, s.EnqueueDevice(packet.DeviceEvent{Code: 10}))
	require.NoError(t, s.EnqueueDevice(packet.DeviceEvent{Code: 20}))

	s.DrainDevice(func(code uint16) bool { return code == 10 })
	require.Equal(t, 1, s.Len())
}
