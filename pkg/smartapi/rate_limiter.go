package smartapi

import (
	"context"
	"sync"
	"time"
)

// ========== 令牌桶限速器 ==========

// RateLimiter paces outgoing requests with a single token bucket.
// The broker answers bursts with HTTP 403, so pacing locally avoids
// spending requests on rejections.
type RateLimiter struct {
	capacity   float64 // 桶容量
	tokens     float64 // 当前令牌数
	refillRate float64 // 令牌/秒
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		capacity:   float64(burst),
		tokens:     float64(burst),
		refillRate: perSecond,
		lastRefill: time.Now(),
	}
}

// Allow consumes one token without blocking.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		needed := 1 - rl.tokens
		waitTime := time.Duration(needed / rl.refillRate * float64(time.Second))
		rl.mu.Unlock()

		if waitTime > 5*time.Second {
			waitTime = 5 * time.Second
		}

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tokens reports the tokens currently in the bucket.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens = min(rl.capacity, rl.tokens+elapsed*rl.refillRate)
	rl.lastRefill = now
}
