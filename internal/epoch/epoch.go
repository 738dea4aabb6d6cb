// Package epoch converts wall-clock time into the discrete time units that
// gate how often a new draw may start.
package epoch

import (
	"errors"
	"sync"
	"time"
)

var ErrInvalidLength = errors.New("epoch length must be positive")

// Clock reports the current time unit.
type Clock interface {
	CurrentTimeUnit() uint64
}

// WallClock counts whole epochs of Length elapsed since Genesis.
type WallClock struct {
	Genesis time.Time
	Length  time.Duration
	Now     func() time.Time
}

func NewWallClock(genesis time.Time, length time.Duration) (*WallClock, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	return &WallClock{Genesis: genesis, Length: length, Now: time.Now}, nil
}

// CurrentTimeUnit returns 0 for any instant before Genesis.
func (c *WallClock) CurrentTimeUnit() uint64 {
	elapsed := c.Now().Sub(c.Genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.Length)
}

// ManualClock is advanced explicitly.
type ManualClock struct {
	mu   sync.Mutex
	unit uint64
}

func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{unit: start}
}

func (c *ManualClock) CurrentTimeUnit() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unit
}

func (c *ManualClock) Tick() {
	c.mu.Lock()
	c.unit++
	c.mu.Unlock()
}

func (c *ManualClock) Set(unit uint64) {
	c.mu.Lock()
	c.unit = unit
	c.mu.Unlock()
}
