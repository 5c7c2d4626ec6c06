package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	maxTrackedClients = 4096
	clientIdleTTL     = 10 * time.Minute
)

// RateLimiter allows limit requests per window for each client IP, with
// bursts up to limit. Clients with no request for clientIdleTTL are forgotten.
func RateLimiter(limit int, window time.Duration) echo.MiddlewareFunc {
	return rateLimiter(limit, window, clientIdleTTL)
}

func rateLimiter(limit int, window, idleTTL time.Duration) echo.MiddlewareFunc {
	var (
		mu       sync.Mutex
		limiters = expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, idleTTL)
		every    = rate.Every(window / time.Duration(limit))
	)

	get := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters.Get(key)
		if !ok {
			l = rate.NewLimiter(every, limit)
		}
		// Add again so the idle timer restarts on every request.
		limiters.Add(key, l)
		return l
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !get(c.RealIP()).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
