package service

import (
	"sync"
	"time"
)

// IssueRateLimiter caps how often a verification code can be reissued per
// key. It is the cooldown policy for issuance: without one, a buggy or
// malicious caller could spam code emails.
type IssueRateLimiter interface {
	Allow(key string) bool
}

type issueRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewIssueRateLimiter creates an in-memory sliding window limiter.
func NewIssueRateLimiter(window time.Duration, max int) IssueRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &issueRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *issueRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true
}
