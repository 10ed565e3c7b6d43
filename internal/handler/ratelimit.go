package handler

import (
	"sync"
	"time"

	"github.com/SiteNotice/SiteNotice/pkg/response"
	"github.com/gofiber/fiber/v2"
)

// RateLimiter is a fixed-window, per-IP request limiter. It protects the
// login and setup endpoints against brute forcing; the render endpoint is
// cheap enough to leave unlimited.
type RateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

type window struct {
	count int
	end   time.Time
}

func NewRateLimiter(limit int, duration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		stopCh:   make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.allow(c.IP(), time.Now()) {
			return response.TooManyRequests(c, "too many requests, please try again later")
		}
		return c.Next()
	}
}

func (rl *RateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.After(w.end) {
		rl.windows[key] = &window{count: 1, end: now.Add(rl.duration)}
		return true
	}

	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// evictLoop periodically removes expired windows
func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for key, w := range rl.windows {
				if now.After(w.end) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop gracefully stops the eviction goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}
