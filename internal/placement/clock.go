package placement

import (
	"sync"
	"time"
)

// Clock is a cancellable per-phase countdown. It ticks once per second,
// invokes onTick with the remaining seconds, and delivers at most one
// onExpire per start. Callbacks run on the clock goroutine while holding the
// callback lock that Cancel also takes, so once Cancel returns no further
// callback fires. Callbacks must therefore return promptly and must not call
// Cancel or block on a lock held by a canceller.
type Clock struct {
	mu        sync.Mutex
	remaining int
	stopped   bool
	stop      chan struct{}
	stopOnce  sync.Once

	cbMu      sync.Mutex
	cancelled bool
	onTick    func(remaining int)
	onExpire  func()
}

// StartClock begins a countdown of the given number of seconds.
func StartClock(seconds int, onTick func(int), onExpire func()) *Clock {
	return startClockEvery(seconds, time.Second, onTick, onExpire)
}

// startClockEvery is the test seam: same countdown, configurable tick period.
func startClockEvery(seconds int, every time.Duration, onTick func(int), onExpire func()) *Clock {
	c := &Clock{
		remaining: seconds,
		stop:      make(chan struct{}),
		onTick:    onTick,
		onExpire:  onExpire,
	}
	go c.run(every)
	return c
}

func (c *Clock) run(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.stopped {
				c.mu.Unlock()
				return
			}
			c.remaining--
			rem := c.remaining
			expired := rem <= 0
			if expired {
				c.stopped = true
			}
			c.mu.Unlock()

			c.cbMu.Lock()
			if c.cancelled {
				c.cbMu.Unlock()
				return
			}
			if c.onTick != nil {
				c.onTick(rem)
			}
			if expired && c.onExpire != nil {
				c.onExpire()
			}
			c.cbMu.Unlock()

			if expired {
				return
			}
		}
	}
}

// Remaining returns the seconds left on the countdown.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Cancel stops the countdown. Safe to call multiple times and after expiry.
// It waits out any in-flight callback, so after Cancel returns the clock is
// silent for good.
func (c *Clock) Cancel() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()

	c.cbMu.Lock()
	c.cancelled = true
	c.cbMu.Unlock()

	c.stopOnce.Do(func() { close(c.stop) })
}
