package pubsub

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus for tests and single-node runs.
// Handlers run synchronously on the publisher's goroutine.
type MemoryBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string]map[int]Handler)}
}

// Publish delivers payload to every subscriber of subject.
func (b *MemoryBus) Publish(_ context.Context, subject string, payload []byte) error {
	b.mu.RLock()
	subscribers := make([]Handler, 0, len(b.handlers[subject]))
	for _, h := range b.handlers[subject] {
		subscribers = append(subscribers, h)
	}
	b.mu.RUnlock()

	for _, h := range subscribers {
		h(payload)
	}
	return nil
}

// Subscribe registers handler for subject.
func (b *MemoryBus) Subscribe(subject string, handler Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[subject] == nil {
		b.handlers[subject] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[subject][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[subject], id)
	}, nil
}
