package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ErrWorkerClosed is returned by Do after Close.
var ErrWorkerClosed = errors.New("db worker closed")

// TxFn is one unit of ledger or directory writes.
type TxFn func(ctx context.Context, tx *sql.Tx) error

type txRequest struct {
	ctx    context.Context
	fn     TxFn
	result chan error
}

// Worker serializes write transactions onto a single goroutine so SQLite
// never sees two writers at once. Reads go straight to the *sql.DB.
type Worker struct {
	db       *sql.DB
	requests chan txRequest
	stopped  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:       db,
		requests: make(chan txRequest, 256),
		stopped:  make(chan struct{}),
	}
	go w.serve()
	return w
}

// Close lets queued transactions finish, then stops the worker. Safe to call
// more than once.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.requests)
	}
	w.mu.Unlock()
	<-w.stopped
}

// Do runs fn inside a transaction on the worker goroutine and returns its
// error, or the commit error. A non-nil error or a panic from fn rolls back.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	req := txRequest{ctx: ctx, fn: fn, result: make(chan error, 1)}

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrWorkerClosed
	}
	select {
	case w.requests <- req:
		w.mu.RUnlock()
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}

	// If ctx expires here the worker still settles the transaction; the
	// result lands in the buffered channel and is dropped.
	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) serve() {
	defer close(w.stopped)
	for req := range w.requests {
		req.result <- w.run(req)
	}
}

func (w *Worker) run(req txRequest) (err error) {
	if err := req.ctx.Err(); err != nil {
		return err
	}
	tx, err := w.db.BeginTx(req.ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	// A panicking write must not take the only writer goroutine with it.
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("write transaction panicked: %v", r)
		}
	}()

	if err := req.fn(req.ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
