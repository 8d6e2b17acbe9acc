package hunter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiter enforces Hunter.io's dual quota: a trailing-minute ceiling and
// a trailing-second burst ceiling. It keeps the timestamps of recent calls
// and sleeps just long enough for the oldest offending call to age out of
// its window, so callers never have to handle a 429 from Hunter for pacing
// reasons.
//
// Both the clock and the sleep are injectable so the waiting behavior is
// testable without real time passing.
type RateLimiter struct {
	mu         sync.Mutex
	timestamps []time.Time

	perMinute int
	perSecond int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a limiter with the given trailing-window ceilings.
// Non-positive ceilings disable the corresponding window.
func NewRateLimiter(perMinute, perSecond int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		perSecond: perSecond,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// NewRateLimiterWithClock is like NewRateLimiter but with an injected clock
// and sleep function for tests.
func NewRateLimiterWithClock(
	perMinute, perSecond int,
	now func() time.Time,
	sleep func(ctx context.Context, d time.Duration) error,
) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		perSecond: perSecond,
		now:       now,
		sleep:     sleep,
	}
}

// Wait blocks until the next call is admissible under both windows, then
// records it. It returns early with the context error if ctx is cancelled
// while waiting.
func (l *RateLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		now := l.now()
		l.prune(now)

		var wait time.Duration
		if l.perMinute > 0 && len(l.timestamps) >= l.perMinute {
			// Oldest call in the minute window must age out first.
			wait = l.timestamps[0].Add(time.Minute).Sub(now)
		} else if l.perSecond > 0 && l.countSince(now.Add(-time.Second)) >= l.perSecond {
			wait = time.Second
		}

		if wait <= 0 {
			l.timestamps = append(l.timestamps, now)
			return nil
		}

		slog.Warn("hunter rate limit reached, pausing", "wait", wait)
		l.mu.Unlock()
		err := l.sleep(ctx, wait)
		l.mu.Lock()
		if err != nil {
			return err
		}
	}
}

// prune drops timestamps older than the minute window.
func (l *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.timestamps = l.timestamps[i:]
	}
}

// countSince counts recorded calls strictly after t. Timestamps are
// appended in order, so scan from the tail.
func (l *RateLimiter) countSince(t time.Time) int {
	n := 0
	for i := len(l.timestamps) - 1; i >= 0; i-- {
		if !l.timestamps[i].After(t) {
			break
		}
		n++
	}
	return n
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
