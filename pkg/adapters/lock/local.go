// Package lock provides per-owner mutual exclusion for collection writes.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

// LocalLocker is a keyed mutex for a single process. Entries are dropped
// once nobody holds or waits for them.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localEntry
	wait  time.Duration
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a locker. A positive wait bounds how long Lock
// blocks before giving up.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		locks: make(map[string]*localEntry),
		wait:  wait,
	}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("lock %s: %w: %w", key, domain.ErrStorageUnavailable, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *LocalLocker) release(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// held reports how many keys are currently tracked.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var _ ports.OwnerLocker = (*LocalLocker)(nil)
