package feedback

import (
	"sync"
	"time"

	"videoads/internal/domain"
)

// Limiter admits at most one post per source within Interval. State lives on
// the value so each board, and each test, owns its own.
type Limiter struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewLimiter returns a limiter. A nil clock uses time.Now; a non-positive
// interval admits everything.
func NewLimiter(interval time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{interval: interval, now: now, last: make(map[string]time.Time)}
}

// Reserve claims the current window for source, or returns
// domain.ErrRateLimited when the previous accepted post is too recent. The
// returned cancel gives the window back when the post is not stored.
func (l *Limiter) Reserve(source string) (cancel func(), err error) {
	if l == nil || l.interval <= 0 {
		return func() {}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	prev, had := l.last[source]
	if had && now.Sub(prev) < l.interval {
		return nil, domain.ErrRateLimited
	}
	l.last[source] = now
	l.prune(now)

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.last[source]; !ok || !cur.Equal(now) {
			return
		}
		if had {
			l.last[source] = prev
		} else {
			delete(l.last, source)
		}
	}, nil
}

// prune drops sources whose window has passed once the map grows large.
func (l *Limiter) prune(now time.Time) {
	if len(l.last) < 1024 {
		return
	}
	for src, t := range l.last {
		if now.Sub(t) >= l.interval {
			delete(l.last, src)
		}
	}
}
