// Package streamlimiter implements the Stream Limiter (C4): a byte-capped
// passthrough transform that signals overflow exactly once, so the output
// cap is enforced at the stream boundary rather than by collect-then-truncate
// (§9 design note).
package streamlimiter

import (
	"io"
	"sync"
)

// Limiter wraps a destination writer, forwarding up to Cap bytes and then
// silently dropping the rest while invoking OnOverflow exactly once.
type Limiter struct {
	dst io.Writer
	cap int64

	mu        sync.Mutex
	written   int64
	overflowed bool
	onOverflow func()
}

// New creates a Limiter writing into dst, capped at capBytes, invoking
// onOverflow (if non-nil) the first time the cap is exceeded.
func New(dst io.Writer, capBytes int64, onOverflow func()) *Limiter {
	return &Limiter{dst: dst, cap: capBytes, onOverflow: onOverflow}
}

// Write implements io.Writer. It is safe to call concurrently, though the
// design assumes a single writer per stream (§4.4); the mutex exists to make
// Overflowed/BytesWritten safe to poll from another goroutine.
func (l *Limiter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.overflowed {
		// Cap already hit: report full consumption to the caller so child
		// process writes don't block or error, but forward nothing further.
		return len(p), nil
	}

	remaining := l.cap - l.written
	if remaining <= 0 {
		l.triggerOverflow()
		return len(p), nil
	}

	toWrite := p
	if int64(len(p)) > remaining {
		toWrite = p[:remaining]
	}

	n, err := l.dst.Write(toWrite)
	l.written += int64(n)
	if err != nil {
		return n, err
	}

	if int64(len(p)) > remaining {
		l.triggerOverflow()
	}
	return len(p), nil
}

// triggerOverflow must be called with mu held.
func (l *Limiter) triggerOverflow() {
	if l.overflowed {
		return
	}
	l.overflowed = true
	if l.onOverflow != nil {
		l.onOverflow()
	}
}

// Overflowed reports whether the cap was ever exceeded.
func (l *Limiter) Overflowed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.overflowed
}

// BytesWritten reports how many bytes were actually forwarded to dst
// (always <= cap).
func (l *Limiter) BytesWritten() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}
