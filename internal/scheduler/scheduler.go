// Package scheduler implements the delay scheduler: the event-release
// policy that is the heart of the anonymization daemon (§4.3).
package scheduler

import (
	"fmt"
	"time"

	"github.com/bnema/kloakd/internal/clock"
	"github.com/bnema/kloakd/internal/packet"
)

// Scheduler buffers decoded events, assigns monotonically
// non-decreasing release times, and releases them in order.
type Scheduler struct {
	clock       *clock.Clock
	queue       *packet.Queue
	maxDelayMS  int64
	prevRelease int64
}

// New returns a scheduler with the given maximum additional delay
// (the -d/--delay CLI flag, §6).
func New(c *clock.Clock, maxDelayMS int64) *Scheduler {
	return &Scheduler{clock: c, queue: packet.NewQueue(), maxDelayMS: maxDelayMS}
}

// Len reports the number of packets still pending release.
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// EnqueueDevice assigns a release time to a DeviceEvent and appends
// it. DeviceEvents never coalesce (§4.3).
func (s *Scheduler) EnqueueDevice(ev packet.DeviceEvent) error {
	sched, err := s.nextSchedTime()
	if err != nil {
		return err
	}
	s.queue.PushBack(packet.Packet{Kind: packet.KindDeviceEvent, SchedTime: sched, Device: ev})
	return nil
}

// EnqueuePointerMove assigns a release time to a PointerMove, unless
// the queue's tail is already a pending PointerMove, in which case its
// target is overwritten in place (coalescing, §4.3) and no new packet
// is appended.
func (s *Scheduler) EnqueuePointerMove(move packet.PointerMove) error {
	if tail := s.queue.PeekLastPointerMove(); tail != nil {
		tail.Move = move
		return nil
	}
	sched, err := s.nextSchedTime()
	if err != nil {
		return err
	}
	s.queue.PushBack(packet.Packet{Kind: packet.KindPointerMove, SchedTime: sched, Move: move})
	return nil
}

// nextSchedTime implements the enqueue contract of §4.3: lower bound
// clamps prev_release - t into [0, D_max], then a uniform draw on
// [lower, D_max] is added to the current time. This guarantees
// non-decreasing release times across the sequence even under bursty
// input.
func (s *Scheduler) nextSchedTime() (int64, error) {
	t := s.clock.NowMS()
	lower := s.prevRelease - t
	if lower < 0 {
		lower = 0
	}
	if lower > s.maxDelayMS {
		lower = s.maxDelayMS
	}
	delay, err := clock.Uniform(lower, s.maxDelayMS)
	if err != nil {
		return 0, fmt.Errorf("scheduler: sampling delay: %w", err)
	}
	sched := t + delay
	s.prevRelease = sched
	return sched, nil
}

// PollDeadline returns the duration the event loop should block in
// poll(2): the time remaining until the head packet's scheduled
// release, or -1 (block indefinitely) if the queue is empty (§4.3).
func (s *Scheduler) PollDeadline() time.Duration {
	head, ok := s.queue.PeekHead()
	if !ok {
		return -1
	}
	remaining := head.SchedTime - s.clock.NowMS()
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// ReleaseDue pops every packet whose scheduled release time has
// arrived and invokes the matching sink callback. Device events are
// dispatched to onDevice; pointer moves are dispatched to onMove with
// the release's wire-safe millisecond timestamp. Returns the count of
// released packets.
func (s *Scheduler) ReleaseDue(onDevice func(packet.DeviceEvent, int64) error, onMove func(packet.PointerMove, int64) error) (int, error) {
	released := 0
	for {
		head, ok := s.queue.PeekHead()
		if !ok || head.SchedTime > s.clock.NowMS() {
			return released, nil
		}
		if clock.ExceedsWire(head.SchedTime) {
			return released, fmt.Errorf("scheduler: release timestamp %d exceeds 32-bit wire representation, restart required", head.SchedTime)
		}
		p, _ := s.queue.PopFront()
		switch p.Kind {
		case packet.KindDeviceEvent:
			if err := onDevice(p.Device, p.SchedTime); err != nil {
				return released, err
			}
		case packet.KindPointerMove:
			if err := onMove(p.Move, p.SchedTime); err != nil {
				return released, err
			}
		}
		released++
	}
}

// DrainDevice removes every queued DeviceEvent packet matching the
// given predicate over its Code, so a closed device's in-flight events
// never reach release (§3, "Lifecycles").
func (s *Scheduler) DrainDevice(match func(code uint16) bool) {
	s.queue.RemoveWhere(func(p packet.Packet) bool {
		return p.Kind == packet.KindDeviceEvent && match(p.Device.Code)
	})
}
