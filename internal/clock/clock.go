package clock

import (
	"sync"
	"time"
)

// Clock is a non-decreasing Unix-seconds timestamp source.
type Clock interface {
	Now() int64
}

type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// ManualClock is a test clock advanced by hand.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

func NewManualClock(start int64) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
}

var (
	_ Clock = SystemClock{}
	_ Clock = (*ManualClock)(nil)
)
