// Package ratelimit enforces the per-client-key request cap from
// spec.md §4.7/§5, applied before the upload validator and the queue.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const idleEvictAfter = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a per-client-key token bucket: window/max become
// rate.Every(window/max) refilled tokens up to a burst of max, the
// idiomatic Go rendering of spec.md's "sliding window or token bucket"
// phrasing.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	every   rate.Limit
	burst   int
}

func New(window time.Duration, max int) *Limiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		entries: make(map[string]*entry),
		every:   rate.Every(window / time.Duration(max)),
		burst:   max,
	}
}

// Allow reports whether a request for key may proceed right now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	limiter := e.limiter
	l.mu.Unlock()

	return limiter.Allow()
}

// StartEvictor runs a background sweep that drops limiter state for keys
// idle longer than idleEvictAfter, so a long-lived process doesn't
// accumulate one entry per distinct key forever.
func (l *Limiter) StartEvictor(stop <-chan struct{}) {
	ticker := time.NewTicker(idleEvictAfter)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				l.evictIdle()
			}
		}
	}()
}

func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > idleEvictAfter {
			delete(l.entries, k)
		}
	}
}
