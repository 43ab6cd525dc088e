// Package clock provides the monotonic timestamp source and the
// rejection-sampled uniform random integer generator the rest of the
// daemon builds on.
package clock

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// MaxWireMillis is the largest release timestamp that still fits the
// 32-bit wire representation used when talking to the compositor.
const MaxWireMillis = math.MaxUint32

// Clock hands out monotonically non-decreasing millisecond timestamps
// relative to the instant it was created.
type Clock struct {
	epoch time.Time
}

// New captures the epoch. The first call in the process defines t=0.
func New() *Clock {
	return &Clock{epoch: time.Now()}
}

// NowMS returns milliseconds elapsed since the clock was created.
func (c *Clock) NowMS() int64 {
	return time.Since(c.epoch).Milliseconds()
}

// ExceedsWire reports whether a millisecond timestamp would overflow the
// 32-bit wire representation; the engine must terminate gracefully when
// this happens (§4.1).
func ExceedsWire(ms int64) bool {
	return ms < 0 || ms > MaxWireMillis
}

// Uniform returns an integer uniformly distributed on [lo, hi], drawn
// from a cryptographic entropy source with rejection sampling to avoid
// modulo bias. When lo >= hi it returns hi, per the defensive contract
// in §4.1.
func Uniform(lo, hi int64) (int64, error) {
	if lo >= hi {
		return hi, nil
	}
	// Delays are bounded to [0, 2^31-1] ms (§6), so hi-lo+1 never
	// approaches the uint64 range; no overflow guard is needed here.
	rangeSize := uint64(hi-lo) + 1

	const maxUint64 = ^uint64(0)
	limit := maxUint64 - (maxUint64 % rangeSize)

	for {
		v, err := randUint64()
		if err != nil {
			return 0, fmt.Errorf("clock: reading entropy source: %w", err)
		}
		if v < limit {
			return lo + int64(v%rangeSize), nil
		}
		// v falls in the biased tail; draw again.
	}
}

func randUint64() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
