// Package lock provides per-group mutual exclusion for every operation that
// replays or rewrites a group's ratings.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrTimeout is returned when a lock could not be taken before the context
// ended.
var ErrTimeout = errors.New("timed out waiting for group lock")

// Locker hands out exclusive access to a key. The returned unlock func must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Keyed is an in-process Locker with one semaphore per key.
type Keyed struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func NewKeyed() *Keyed {
	return &Keyed{sems: make(map[string]*semaphore.Weighted)}
}

func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	sem := k.semaphore(key)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("group %s: %w", key, ErrTimeout)
	}
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}

func (k *Keyed) semaphore(key string) *semaphore.Weighted {
	k.mu.Lock()
	defer k.mu.Unlock()
	sem, ok := k.sems[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		k.sems[key] = sem
	}
	return sem
}

// Chain takes every locker in order and releases them in reverse. Putting the
// in-process lock first keeps waiting goroutines off database connections.
type Chain []Locker

func (c Chain) Lock(ctx context.Context, key string) (func(), error) {
	unlocks := make([]func(), 0, len(c))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, l := range c {
		unlock, err := l.Lock(ctx, key)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}
