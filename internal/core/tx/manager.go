// Package tx provides transaction management abstractions.
// Domain code depends on Manager; the PostgreSQL and SQLite adapters implement it.
package tx

import (
	"context"
	"errors"
)

// Manager defines the contract for transaction management.
//
// The transaction travels in the context passed to fn, so repositories called
// from fn automatically join it. Nested calls reuse the existing transaction.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ErrLockContention marks errors caused by a lock that could not be acquired in
// time (lock timeout, busy database, deadlock victim). The whole transaction may
// be retried.
var ErrLockContention = errors.New("tx: lock not acquired")

type contentionError struct {
	err error
}

func (e *contentionError) Error() string { return e.err.Error() }

func (e *contentionError) Unwrap() error { return e.err }

func (e *contentionError) Is(target error) bool { return target == ErrLockContention }

// MarkContention tags err as lock contention. The original chain stays reachable
// through errors.As and errors.Is.
func MarkContention(err error) error {
	if err == nil || IsContention(err) {
		return err
	}
	return &contentionError{err: err}
}

// IsContention reports whether err was tagged by MarkContention.
func IsContention(err error) bool {
	return errors.Is(err, ErrLockContention)
}
