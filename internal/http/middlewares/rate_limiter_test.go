package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newLimitedServer(limit int, window, idleTTL time.Duration) *echo.Echo {
	e := echo.New()
	e.Use(rateLimiter(limit, window, idleTTL))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

func hit(e *echo.Echo) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiter_ActiveClientKeepsItsBucket(t *testing.T) {
	e := newLimitedServer(1, time.Hour, 200*time.Millisecond)

	if code := hit(e); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	for i := 0; i < 2; i++ {
		time.Sleep(120 * time.Millisecond)
		if code := hit(e); code != http.StatusTooManyRequests {
			t.Fatalf("request %d: expected 429 from the same bucket, got %d", i+2, code)
		}
	}
}

func TestRateLimiter_IdleClientIsForgotten(t *testing.T) {
	e := newLimitedServer(1, time.Hour, 100*time.Millisecond)

	if code := hit(e); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := hit(e); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}

	time.Sleep(250 * time.Millisecond)
	if code := hit(e); code != http.StatusOK {
		t.Errorf("expected a fresh bucket after idling, got %d", code)
	}
}
