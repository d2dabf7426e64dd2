package validation

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket per key. The playground keys it by message
// so repeated warnings (held unbound keys, failing asset hosts) do not flood the log.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	buckets     map[string]*bucket
	mu          sync.RWMutex
	cleanupTick *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// bucket tracks the remaining budget for one key
type bucket struct {
	tokens     int
	lastRefill time.Time
	maxTokens  int
	window     time.Duration
	mu         sync.Mutex
}

// NewRateLimiter allows maxRequests per key per window
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		buckets:     make(map[string]*bucket),
		done:        make(chan struct{}),
	}

	// Start cleanup goroutine to drop idle buckets
	rl.cleanupTick = time.NewTicker(window)
	go rl.cleanup()

	return rl
}

// Allow reports whether key still has budget in the current window
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if b, exists = rl.buckets[key]; !exists {
			b = &bucket{
				tokens:     rl.maxRequests,
				lastRefill: time.Now(),
				maxTokens:  rl.maxRequests,
				window:     rl.window,
			}
			rl.buckets[key] = b
		}
		rl.mu.Unlock()
	}

	return b.consume()
}

// consume takes a token, refilling in proportion to the time since the last refill
func (b *bucket) consume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()

	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 && b.tokens < b.maxTokens {
		windowsPassed := float64(elapsed) / float64(b.window)
		tokensToAdd := int(float64(b.maxTokens) * windowsPassed)

		if tokensToAdd > 0 {
			b.tokens += tokensToAdd
			if b.tokens > b.maxTokens {
				b.tokens = b.maxTokens
			}
			b.lastRefill = now
		}
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.removeIdle()
		case <-rl.done:
			return
		}
	}
}

// removeIdle drops buckets untouched for 2 windows
func (rl *RateLimiter) removeIdle() {
	cutoff := time.Now().Add(-2 * rl.window)

	rl.mu.Lock()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if b.lastRefill.Before(cutoff) {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
	rl.mu.Unlock()
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
		rl.cleanupTick.Stop()
	})
}
