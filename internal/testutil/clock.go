package testutil

import (
	"sync"
	"time"

	"github.com/roach88/zeromem/internal/ir"
)

// EventClock is a resettable logical clock for tests.
//
// Next returns 1, 2, 3, ... and satisfies runtime.Sequencer. EventTime
// renders the current tick as an RFC 3339 timestamp, one step per tick after
// the start time, so fixtures get distinct but reproducible event times.
//
// Safe for concurrent use.
type EventClock struct {
	mu    sync.Mutex
	seq   int64
	start time.Time
	step  time.Duration
}

// NewEventClock starts at SampleEventTime with a one-second step.
func NewEventClock() *EventClock {
	start, err := time.Parse(time.RFC3339, SampleEventTime)
	if err != nil {
		panic(err)
	}
	return NewEventClockAt(start, time.Second)
}

// NewEventClockAt starts at start, advancing step per tick.
func NewEventClockAt(start time.Time, step time.Duration) *EventClock {
	return &EventClock{start: start.UTC(), step: step}
}

// Next advances the clock and returns the new sequence number.
func (c *EventClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the sequence number without advancing.
func (c *EventClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// EventTime returns the timestamp of the current tick.
func (c *EventClock) EventTime() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeAt(c.seq)
}

// NextContext advances the clock and returns a context observed at the new
// tick. Consecutive contexts differ only in EventTime, so each gets its own
// ContextHash.
func (c *EventClock) NextContext(source, scope string) ir.ContextMeta {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return ir.ContextMeta{
		EventTime: c.timeAt(c.seq),
		Source:    source,
		Scope:     scope,
	}
}

// Reset rewinds to tick 0.
func (c *EventClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

func (c *EventClock) timeAt(seq int64) string {
	return c.start.Add(time.Duration(seq) * c.step).Format(time.RFC3339)
}
