// Package response collects timestamped key presses from the keyboard and
// from a serial response box.
package response

import (
	"context"
	"sync"
	"time"
)

// Key names shared by all sources.
const (
	KeyEscape = "escape"
	KeySpace  = "space"
	KeyReturn = "return"
)

// Event is a single key press.
type Event struct {
	Key    string
	At     time.Time
	Source string
}

// Since returns the seconds elapsed between start and the press.
func (e Event) Since(start time.Time) float64 {
	return e.At.Sub(start).Seconds()
}

// Source pushes events to out until ctx is done or the device fails.
type Source interface {
	Name() string
	Run(ctx context.Context, out chan<- Event) error
}

// Collector merges the events of several sources into one queue.
type Collector struct {
	events chan Event

	mu     sync.Mutex
	errors []error
	wg     sync.WaitGroup
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{events: make(chan Event, 64)}
}

// Add starts reading from src in the background.
func (c *Collector) Add(ctx context.Context, src Source) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := src.Run(ctx, c.events); err != nil && ctx.Err() == nil {
			c.mu.Lock()
			c.errors = append(c.errors, err)
			c.mu.Unlock()
		}
	}()
}

// Push injects an event directly.
func (c *Collector) Push(ev Event) {
	c.events <- ev
}

// Errors returns the errors sources stopped with.
func (c *Collector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errors...)
}

// Wait blocks until every source has returned.
func (c *Collector) Wait() {
	c.wg.Wait()
}

// Drain discards pending events and reports whether escape was among them.
func (c *Collector) Drain() (escape bool) {
	for {
		select {
		case ev := <-c.events:
			if ev.Key == KeyEscape {
				escape = true
			}
		default:
			return escape
		}
	}
}

// Next returns the next event whose key is in keys, or any key when keys
// is empty. Escape is always returned. ok is false when timeout elapses
// first; a timeout of zero or less waits indefinitely.
func (c *Collector) Next(ctx context.Context, timeout time.Duration, keys ...string) (ev Event, ok bool, err error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case ev = <-c.events:
			if ev.Key == KeyEscape || accepts(keys, ev.Key) {
				return ev, true, nil
			}
		case <-expired:
			return Event{}, false, nil
		case <-ctx.Done():
			return Event{}, false, ctx.Err()
		}
	}
}

func accepts(keys []string, key string) bool {
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// KeyIndex returns the 1-based position of key in keys, or 0.
func KeyIndex(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i + 1
		}
	}
	return 0
}
