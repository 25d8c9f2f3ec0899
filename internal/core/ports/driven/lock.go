package driven

import "context"

// WriterLock serialises writers of a collection. Readers never take it.
type WriterLock interface {
	// Acquire blocks until the collection's write lock is held or ctx is done.
	// Returns domain.ErrWriterBusy (wrapped) when the wait is abandoned.
	Acquire(ctx context.Context, collection string) (LockHandle, error)
}

// LockHandle releases a held lock.
type LockHandle interface {
	Release(ctx context.Context) error
}
