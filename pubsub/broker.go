package pubsub

import (
	"context"
	"sync"
)

const bufferSize = 64

// Broker is an in-memory publish/subscribe hub. The type parameter keeps
// event payloads type safe end to end.
type Broker[T any] struct {
	subs     map[chan Event[T]]struct{}
	mu       sync.RWMutex
	done     chan struct{}
	subCount int
}

// NewBroker creates a broker with the default channel buffer size.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]struct{}),
		done: make(chan struct{}),
	}
}

// Shutdown stops the broker and closes every subscriber channel. Safe to
// call more than once.
func (b *Broker[T]) Shutdown() {
	select {
	case <-b.done:
		return
	default:
		close(b.done)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	b.subCount = 0
}

// Subscribe registers a subscriber and returns its event channel. The
// subscription is removed and the channel closed when ctx is done or the
// broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], bufferSize)
	b.subs[sub] = struct{}{}
	b.subCount++

	go func() {
		<-ctx.Done()

		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return
		default:
		}

		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub)
			b.subCount--
		}
	}()

	return sub
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.subCount
}

// Publish fans an event out to every subscriber. Delivery is non-blocking:
// a subscriber whose buffer is full misses the event.
func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.RLock()
	select {
	case <-b.done:
		b.mu.RUnlock()
		return
	default:
	}

	subscribers := make([]chan Event[T], 0, len(b.subs))
	for sub := range b.subs {
		subscribers = append(subscribers, sub)
	}
	b.mu.RUnlock()

	event := Event[T]{Type: t, Payload: payload}
	for _, sub := range subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}
