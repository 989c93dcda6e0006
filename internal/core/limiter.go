package core

// limiter.go bounds how many validations run at once.
//
// Parsing and checking an uploaded file is cheap per file but unbounded in
// aggregate, so the server and the batch ingester share a semaphore. When all
// slots are taken, callers wait up to maxWait before failing with
// ErrTooManyValidations. WaitForDrain lets shutdown wait for in-flight work.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyValidations is returned when no slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyValidations = errors.New("too many concurrent validations, please try again later")

// DefaultMaxConcurrentValidations is the default limit for parallel validations.
const DefaultMaxConcurrentValidations = 8

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 10 * time.Second

// Limiter controls concurrent validations using a semaphore.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter creates a limiter allowing at most maxConcurrent validations.
// Non-positive arguments select the defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentValidations
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. It returns ErrTooManyValidations if none frees up
// within the wait timeout, or the context's error if ctx ends first.
// The caller MUST call Release when done.
func (l *Limiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyValidations
	}
}

// TryAcquire takes a slot without blocking.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.track(-1)
	<-l.slots
}

func (l *Limiter) track(delta int) {
	l.mu.Lock()
	l.active += delta
	l.mu.Unlock()
}

// ActiveCount returns the number of validations in progress.
func (l *Limiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *Limiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no validation is in progress or ctx ends.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of a Limiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for the health endpoint.
func (l *Limiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
