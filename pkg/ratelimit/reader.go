// Package ratelimit throttles file reads so that hashing large trees does
// not saturate a shared disk or network mount.
package ratelimit

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter is a token bucket shared by every reader of a run
type Limiter struct {
	bytesPerSecond int64
	bucketSize     int64

	mu         sync.Mutex
	tokens     int64
	lastUpdate time.Time
}

// NewLimiter creates a limiter for the given rate.
// A non-positive rate returns nil, meaning unlimited.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	// One second of data, never below 64KB so small rates still read whole buffers
	bucketSize := bytesPerSecond
	if bucketSize < 65536 {
		bucketSize = 65536
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		bucketSize:     bucketSize,
		tokens:         bucketSize,
		lastUpdate:     time.Now(),
	}
}

// Rate returns the configured bytes per second
func (l *Limiter) Rate() int64 {
	return l.bytesPerSecond
}

// wait blocks until n tokens are available, then takes them
func (l *Limiter) wait(ctx context.Context, n int64) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= n {
			l.tokens -= n
			l.mu.Unlock()
			return nil
		}
		deficit := n - l.tokens
		l.mu.Unlock()

		delay := time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
		if delay < time.Millisecond {
			delay = time.Millisecond
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill adds tokens for the elapsed time; caller holds mu
func (l *Limiter) refill() {
	now := time.Now()
	add := int64(now.Sub(l.lastUpdate).Seconds() * float64(l.bytesPerSecond))
	if add > 0 {
		l.tokens += add
		if l.tokens > l.bucketSize {
			l.tokens = l.bucketSize
		}
		l.lastUpdate = now
	}
}

// refund returns unused tokens after a short read
func (l *Limiter) refund(n int64) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	l.tokens += n
	if l.tokens > l.bucketSize {
		l.tokens = l.bucketSize
	}
	l.mu.Unlock()
}

// ReadCloser throttles an io.ReadCloser through a Limiter
type ReadCloser struct {
	ctx     context.Context
	rc      io.ReadCloser
	limiter *Limiter
}

// NewReadCloser wraps rc. A nil limiter returns rc unchanged.
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &ReadCloser{ctx: ctx, rc: rc, limiter: limiter}
}

// Read implements io.Reader
func (r *ReadCloser) Read(p []byte) (int, error) {
	want := int64(len(p))
	if want > r.limiter.bucketSize {
		want = r.limiter.bucketSize
	}
	if want == 0 {
		return 0, nil
	}

	if err := r.limiter.wait(r.ctx, want); err != nil {
		return 0, err
	}

	n, err := r.rc.Read(p[:want])
	r.limiter.refund(want - int64(n))
	return n, err
}

// Close implements io.Closer
func (r *ReadCloser) Close() error {
	return r.rc.Close()
}

// ParseRate parses a rate such as "512K", "10M" or "1G" into bytes per second.
// An empty string or "0" means unlimited.
func ParseRate(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" || s == "0" {
		return 0, nil
	}

	s = strings.TrimSuffix(s, "B")
	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
	}
	if multiplier > 1 {
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid rate %q (examples: 512K, 10M, 1G)", s)
	}

	return int64(value * float64(multiplier)), nil
}
