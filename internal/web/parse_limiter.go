package web

// parse_limiter.go bounds how many requests parse uploaded files at once.
//
// Parsing holds whole files in memory, so a burst of large uploads is the
// main way to exhaust the process. When every slot is busy a request waits
// up to maxWait and then fails with ErrTooManyUploads. WaitForDrain lets
// shutdown finish in-flight parses.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyUploads is returned when no slot frees up within the wait time.
var ErrTooManyUploads = errors.New("too many uploads in progress, please try again later")

const (
	DefaultMaxConcurrentParses = 5
	DefaultMaxWaitTime         = 30 * time.Second
)

// ParseLimiter is a weighted semaphore with a bounded wait.
type ParseLimiter struct {
	sem     *semaphore.Weighted
	size    int
	maxWait time.Duration
	active  atomic.Int64
}

// NewParseLimiter allows maxConcurrent parses at a time. Non-positive
// arguments fall back to the defaults.
func NewParseLimiter(maxConcurrent int, maxWait time.Duration) *ParseLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentParses
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &ParseLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		size:    maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire takes a slot. Callers must Release it.
func (l *ParseLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyUploads
	}
	l.active.Add(1)
	return nil
}

// Release returns a slot taken by Acquire.
func (l *ParseLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// Active returns the number of slots in use.
func (l *ParseLimiter) Active() int { return int(l.active.Load()) }

// Available returns the number of free slots.
func (l *ParseLimiter) Available() int { return l.size - l.Active() }

// WaitForDrain blocks until no parse is running or ctx ends.
func (l *ParseLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
