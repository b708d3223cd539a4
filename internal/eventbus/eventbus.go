// Package eventbus provides a small in-process publish/subscribe bus. The
// assignment service and the reconciliation engine publish transition, match
// and cycle events on it; the telemetry forwarder subscribes. Delivery is
// best-effort: a slow subscriber drops events rather than stalling the
// publisher.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// Event is an arbitrary event passed on the bus.
type Event interface{}

// EventBus is the publish/subscribe contract.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

const defaultBuffer = 16

// Bus fans events out to a set of buffered subscriber channels.
type Bus struct {
	mu      sync.RWMutex
	subs    map[<-chan Event]chan Event
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// New creates a Bus with the default subscriber buffer.
func New() *Bus { return NewSized(defaultBuffer) }

// NewSized creates a Bus whose subscriber channels buffer n events.
func NewSized(n int) *Bus {
	if n < 1 {
		n = 1
	}
	return &Bus{subs: make(map[<-chan Event]chan Event), buffer: n}
}

// Publish delivers the event to every subscriber whose buffer has room.
// It never blocks; events to full subscribers are counted as dropped.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a new subscriber and returns its channel. After Close
// the returned channel is already closed.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = ch
	return ch
}

// Unsubscribe removes the subscriber and closes its channel. Unknown
// channels are ignored.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[sub]
	if !ok {
		return
	}
	delete(b.subs, sub)
	close(ch)
}

// Dropped reports how many events were discarded on full subscriber buffers.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Close closes every subscriber channel. Further publishes are no-ops and
// further subscribes return closed channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
