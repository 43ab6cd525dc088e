package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue()
	q.PushBack(Packet{Kind: KindDeviceEvent, SchedTime: 10})
	q.PushBack(Packet{Kind: KindDeviceEvent, SchedTime: 20})
	q.PushBack(Packet{Kind: KindDeviceEvent, SchedTime: 30})

	require.Equal(t, 3, q.Len())

	p, ok := q.PopFront()
	require.True(t, ok)
	require.EqualValues(t, 10, p.SchedTime)

	p, ok = q.PopFront()
	require.True(t, ok)
	require.EqualValues(t, 20, p.SchedTime)

	require.NoError(t, q.Validate())
}

func TestPeekLastPointerMove(t *testing.T) {
	q := NewQueue()
	require.Nil(t, q.PeekLastPointerMove())

	q.PushBack(Packet{Kind: KindDeviceEvent, SchedTime: 1})
	require.Nil(t, q.PeekLastPointerMove())

	q.PushBack(Packet{Kind: KindPointerMove, SchedTime: 2, Move: PointerMove{X: 5, Y: 5}})
	tail := q.PeekLastPointerMove()
	require.NotNil(t, tail)
	tail.Move.X = 99
	tail2 := q.PeekLastPointerMove()
	require.EqualValues(t, 99, tail2.Move.X)
}

func TestRemoveWhere(t *testing.T) {
	q := NewQueue()
	q.PushBack(Packet{Kind: KindDeviceEvent, SchedTime: 1, Device: DeviceEvent{Code: 1}})
	q.PushBack(Packet{Kind: KindDeviceEvent, SchedTime: 2, Device: DeviceEvent{Code: 2}})
	q.PushBack(Packet{Kind: KindDeviceEvent, SchedTime: 3, Device: DeviceEvent{Code: 1}})

	q.RemoveWhere(func(p Packet) bool { return p.Device.Code == 1 })
	require.Equal(t, 1, q.Len())
	p, _ := q.PeekHead()
	require.EqualValues(t, 2, p.Device.Code)
}

func TestValidateDetectsNonMonotonic(t *testing.T) {
	q := NewQueue()
	q.PushBack(Packet{SchedTime: 10})
	q.PushBack(Packet{SchedTime: 5})
	require.Error(t, q.Validate())
}
