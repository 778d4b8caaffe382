// Package timextest provides manual clocks and tickers for tests.
package timextest

import (
	"sync"
	"time"

	"github.com/yudo-scheduler/yudo/internal/timex"
)

// Ticker is a manually driven timex.Ticker.
type Ticker struct {
	Interval time.Duration

	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *Ticker) C() <-chan time.Time { return t.c }

func (t *Ticker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Stopped reports whether Stop was called.
func (t *Ticker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Tick delivers one tick. It blocks until the consumer receives it, so a
// returned Tick means the consumer has started handling it.
func (t *Ticker) Tick() {
	t.c <- time.Now()
}

// Factory hands out Tickers and remembers every one it created.
type Factory struct {
	mu      sync.Mutex
	tickers []*Ticker
	created chan *Ticker
}

func NewFactory() *Factory {
	return &Factory{created: make(chan *Ticker, 64)}
}

// New satisfies timex.TickerFactory.
func (f *Factory) New(d time.Duration) timex.Ticker {
	t := &Ticker{Interval: d, c: make(chan time.Time)}
	f.mu.Lock()
	f.tickers = append(f.tickers, t)
	f.mu.Unlock()
	f.created <- t
	return t
}

// Next waits for the next created ticker.
func (f *Factory) Next(timeout time.Duration) *Ticker {
	select {
	case t := <-f.created:
		return t
	case <-time.After(timeout):
		return nil
	}
}

// All returns every ticker created so far.
func (f *Factory) All() []*Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Ticker(nil), f.tickers...)
}

// Clock is a manually advanced timex.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
