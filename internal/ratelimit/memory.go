package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

type window struct {
	start time.Time
	count int
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
}

// MemoryOptions tunes a MemoryLimiter.
type MemoryOptions struct {
	// MaxKeys caps tracked keys. When full, expired windows are dropped
	// first, then the oldest window. Zero means DefaultMaxKeys.
	MaxKeys int
	Clock   func() time.Time
}

const DefaultMaxKeys = 100_000

// MemoryLimiter is a process-local fixed-window limiter. Keys are spread over
// independently locked shards; every read-modify-write of a window happens
// under its shard lock, so concurrent requests from one key are all counted.
type MemoryLimiter struct {
	policy      Policy
	clock       func() time.Time
	maxPerShard int
	shards      [shardCount]shard
}

func NewMemoryLimiter(p Policy, opts MemoryOptions) (*MemoryLimiter, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if opts.MaxKeys <= 0 {
		opts.MaxKeys = DefaultMaxKeys
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	perShard := opts.MaxKeys / shardCount
	if perShard < 1 {
		perShard = 1
	}

	l := &MemoryLimiter{policy: p, clock: opts.Clock, maxPerShard: perShard}
	for i := range l.shards {
		l.shards[i].windows = make(map[string]*window)
	}
	return l, nil
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.clock()
	s := &l.shards[xxhash.Sum64String(key)%shardCount]

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= l.policy.Window {
		if !ok && len(s.windows) >= l.maxPerShard {
			l.evictLocked(s, now)
		}
		w = &window{start: now}
		s.windows[key] = w
	}

	// Stop counting one past the limit; the window is blocked either way.
	if w.count <= l.policy.Limit {
		w.count++
	}
	if w.count > l.policy.Limit {
		return Decision{Allowed: false, RetryAfter: w.start.Add(l.policy.Window).Sub(now)}, nil
	}
	return Decision{Allowed: true}, nil
}

func (l *MemoryLimiter) evictLocked(s *shard, now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, w := range s.windows {
		if now.Sub(w.start) >= l.policy.Window {
			delete(s.windows, k)
			continue
		}
		if oldestKey == "" || w.start.Before(oldest) {
			oldestKey, oldest = k, w.start
		}
	}
	if len(s.windows) >= l.maxPerShard && oldestKey != "" {
		delete(s.windows, oldestKey)
	}
}

// Sweep drops every expired window and returns how many were removed.
func (l *MemoryLimiter) Sweep() int {
	now := l.clock()
	removed := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for k, w := range s.windows {
			if now.Sub(w.start) >= l.policy.Window {
				delete(s.windows, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (l *MemoryLimiter) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

// Len is the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	n := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		n += len(s.windows)
		s.mu.Unlock()
	}
	return n
}
