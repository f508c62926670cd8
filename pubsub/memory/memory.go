package memory

import (
	"context"
	"sync"
)

type subscriber struct {
	handler func(message []byte)
}

// MemoryBroker delivers to subscribers of this process only. Handlers run
// synchronously on the publishing goroutine.
type MemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subscribers: make(map[string]map[*subscriber]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, message []byte) error {
	b.mu.RLock()
	handlers := make([]func([]byte), 0, len(b.subscribers[channel]))
	for sub := range b.subscribers[channel] {
		handlers = append(handlers, sub.handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(message)
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sub := &subscriber{handler: handler}

	b.mu.Lock()
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[*subscriber]struct{})
	}
	b.subscribers[channel][sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers[channel], sub)
		if len(b.subscribers[channel]) == 0 {
			delete(b.subscribers, channel)
		}
		b.mu.Unlock()
	}()

	return nil
}
