// Package local provides an in-process writer lock, one per collection name.
package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driven"
)

// Ensure Lock implements the interface.
var _ driven.WriterLock = (*Lock)(nil)

// Lock serialises writers within one process.
type Lock struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLock creates an in-process writer lock.
func NewLock() *Lock {
	return &Lock{slots: make(map[string]chan struct{})}
}

func (l *Lock) slot(collection string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[collection]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[collection] = ch
	}
	return ch
}

// Acquire blocks until collection is free or ctx is done.
func (l *Lock) Acquire(ctx context.Context, collection string) (driven.LockHandle, error) {
	ch := l.slot(collection)
	select {
	case ch <- struct{}{}:
		return &handle{ch: ch}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %q: %w", domain.ErrWriterBusy, collection, ctx.Err())
	}
}

type handle struct {
	once sync.Once
	ch   chan struct{}
}

// Release frees the slot. Further calls are no-ops.
func (h *handle) Release(_ context.Context) error {
	h.once.Do(func() { <-h.ch })
	return nil
}
