// internal/realtime/broadcaster.go

// Package realtime delivers "the listings table changed" signals. Payloads
// are informational only; subscribers refetch whatever they display.
package realtime

import (
	"sync"
	"time"
)

type Event struct {
	Table     string    `json:"table"`
	Operation string    `json:"operation,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier is anything that can hand out change subscriptions.
type Notifier interface {
	Subscribe() *Subscription
}

// Subscription is returned by Subscribe. Cancel must be called when the
// subscriber goes away; it is safe to call more than once.
type Subscription struct {
	C <-chan Event

	ch     chan Event
	once   sync.Once
	cancel func(*Subscription)
}

func (s *Subscription) Cancel() {
	s.once.Do(func() { s.cancel(s) })
}

// Broadcaster fans each published event out to every live subscription.
// A slow subscriber keeps only the latest pending event.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[*Subscription]struct{})}
}

func (b *Broadcaster) Subscribe() *Subscription {
	ch := make(chan Event, 1)
	sub := &Subscription{C: ch, ch: ch, cancel: b.remove}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		sub.once.Do(func() {})
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

func (b *Broadcaster) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			// Drop the stale pending event in favour of the new one.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}

// Len reports the number of live subscriptions.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription; their channels are closed.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}
