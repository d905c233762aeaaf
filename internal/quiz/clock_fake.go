package quiz

import (
	"sync"
	"time"
)

// FakeClock is a manually driven Clock for tests. Ticks are handed over
// synchronously: Advance returns only once every due tick has been received
// or its ticker stopped.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*FakeTicker
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("quiz: non-positive ticker period")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &FakeTicker{
		ch:      make(chan time.Time),
		stopped: make(chan struct{}),
		period:  d,
		next:    c.now.Add(d),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Tickers returns every ticker created so far, stopped or not.
func (c *FakeClock) Tickers() []*FakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*FakeTicker(nil), c.tickers...)
}

// Advance moves time forward by d and delivers the ticks that fall due, in
// order. It returns how many ticks were actually received.
func (c *FakeClock) Advance(d time.Duration) int {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	delivered := 0
	for {
		c.mu.Lock()
		var due *FakeTicker
		for _, t := range c.tickers {
			if t.isStopped() || t.next.After(target) {
				continue
			}
			if due == nil || t.next.Before(due.next) {
				due = t
			}
		}
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return delivered
		}
		at := due.next
		due.next = at.Add(due.period)
		c.now = at
		c.mu.Unlock()

		if due.fire(at) {
			delivered++
		}
	}
}

type FakeTicker struct {
	ch       chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
	period   time.Duration
	next     time.Time
}

func (t *FakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *FakeTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// Stopped reports whether Stop has been called.
func (t *FakeTicker) Stopped() bool {
	return t.isStopped()
}

func (t *FakeTicker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

func (t *FakeTicker) fire(at time.Time) bool {
	select {
	case <-t.stopped:
		return false
	default:
	}
	select {
	case t.ch <- at:
		return true
	case <-t.stopped:
		return false
	}
}
