package progress

import (
	"sync"
	"sync/atomic"
)

// Event is one item of a Stream. Exactly one of Page or Batch is set.
type Event struct {
	Page  *PageEvent
	Batch *BatchEvent
}

// Stream is a Sink that republishes events on a buffered channel. Publishing
// never blocks: when the buffer is full the event is dropped. Counts in
// every event are running totals, so a later event supersedes a dropped one.
type Stream struct {
	events  chan Event
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewStream creates a Stream with the given buffer size.
func NewStream(buffer int) *Stream {
	if buffer < 1 {
		buffer = 1
	}
	return &Stream{events: make(chan Event, buffer)}
}

// Events returns the channel consumers read from. It is closed by Close.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Page implements Sink.
func (s *Stream) Page(e PageEvent) {
	s.publish(Event{Page: &e})
}

// Batch implements Sink.
func (s *Stream) Batch(e BatchEvent) {
	s.publish(Event{Batch: &e})
}

// Dropped returns how many events were discarded because the consumer lagged.
func (s *Stream) Dropped() int64 {
	return s.dropped.Load()
}

// Close ends the stream. Events published afterwards are dropped.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

func (s *Stream) publish(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.events <- e:
	default:
		s.dropped.Add(1)
	}
}
