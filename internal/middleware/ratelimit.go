package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tourbench/console/internal/apperror"
)

// fixedWindow counts requests per client IP in fixed windows held in
// memory. The console runs as a single instance, so there is no need to
// share counters.
type fixedWindow struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*windowEntry
	swept   time.Time
}

type windowEntry struct {
	count int
	start time.Time
}

func newFixedWindow(limit int, window time.Duration) *fixedWindow {
	return &fixedWindow{max: limit, window: window, entries: make(map[string]*windowEntry)}
}

// allow records a request from key at now. When the key is over its limit
// it returns false and how long until the window resets.
func (w *fixedWindow) allow(key string, now time.Time) (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Expired entries are dropped lazily, at most once per window.
	if now.Sub(w.swept) > w.window {
		for k, e := range w.entries {
			if now.Sub(e.start) > w.window {
				delete(w.entries, k)
			}
		}
		w.swept = now
	}

	e, ok := w.entries[key]
	if !ok || now.Sub(e.start) > w.window {
		w.entries[key] = &windowEntry{count: 1, start: now}
		return true, 0
	}
	e.count++
	if e.count > w.max {
		return false, e.start.Add(w.window).Sub(now)
	}
	return true, 0
}

// RateLimit returns middleware that allows maxRequests per client IP per
// window and answers the rest with 429 and a Retry-After header.
func RateLimit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	limiter := newFixedWindow(maxRequests, window)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, wait := limiter.allow(c.RealIP(), time.Now())
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				return apperror.NewTooManyRequests("Too many attempts. Please try again later.")
			}
			return next(c)
		}
	}
}
