// Package events carries the dashboard's cross-component signals as typed topics
// injected into the components that need them.
package events

import (
	"context"
	"sync"

	"github.com/mtlprog/plotina/internal/domain"
)

// Topic is a typed publish/subscribe channel. Handlers run synchronously on the
// publishing goroutine in subscription order.
type Topic[T any] struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(T)
	order    []int
}

// NewTopic creates an empty topic.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{handlers: make(map[int]func(T))}
}

// Subscribe registers fn and returns a function that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.handlers[id] = fn
	t.order = append(t.order, id)
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.handlers, id)
			for i, v := range t.order {
				if v == id {
					t.order = append(t.order[:i], t.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers v to every current subscriber.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	fns := make([]func(T), 0, len(t.order))
	for _, id := range t.order {
		fns = append(fns, t.handlers[id])
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Stream returns a buffered channel fed from the topic until ctx is done.
// Values are dropped when the consumer falls behind.
func (t *Topic[T]) Stream(ctx context.Context, buffer int) <-chan T {
	ch := make(chan T, buffer)
	var mu sync.Mutex
	closed := false

	unsubscribe := t.Subscribe(func(v T) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- v:
		default:
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()

	return ch
}

// Subscribers returns the number of registered handlers.
func (t *Topic[T]) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// WeightChange is published after one or more weights were edited.
type WeightChange struct {
	Codes []string `json:"codes,omitempty"`
}

// Bus groups the dashboard topics.
type Bus struct {
	WeightChanged *Topic[WeightChange]
	Impacts       *Topic[[]domain.Impact]
	SelectedIndex *Topic[*int]
	IndexShown    *Topic[bool]
}

// NewBus creates a bus with all topics initialized.
func NewBus() *Bus {
	return &Bus{
		WeightChanged: NewTopic[WeightChange](),
		Impacts:       NewTopic[[]domain.Impact](),
		SelectedIndex: NewTopic[*int](),
		IndexShown:    NewTopic[bool](),
	}
}
