package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newRateLimitedHandler(t *testing.T, limit int, window time.Duration) (http.Handler, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mw := RateLimitMiddleware(client, RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            window,
		KeyPrefix:         "ratelimit",
	}, zap.NewNop())

	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})), mr
}

func doRequest(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestProperty_LimitIsExactPerClient(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("exactly the configured number of requests pass", prop.ForAll(
		func(limit int, excess int) bool {
			handler, _ := newRateLimitedHandler(t, limit, time.Minute)

			allowed, blocked := 0, 0
			for i := 0; i < limit+excess; i++ {
				switch doRequest(handler, "10.0.0.7:1234").Code {
				case http.StatusOK:
					allowed++
				case http.StatusTooManyRequests:
					blocked++
				}
			}
			return allowed == limit && blocked == excess
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_ClientsAreCountedSeparately(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 1, time.Minute)

	if code := doRequest(handler, "10.0.0.1:1000").Code; code != http.StatusOK {
		t.Fatalf("first client first request: expected 200, got %d", code)
	}
	if code := doRequest(handler, "10.0.0.1:1000").Code; code != http.StatusTooManyRequests {
		t.Errorf("first client second request: expected 429, got %d", code)
	}
	if code := doRequest(handler, "10.0.0.2:1000").Code; code != http.StatusOK {
		t.Errorf("second client should have its own window, got %d", code)
	}
}

func TestRateLimit_WindowExpiryResetsCounter(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 1, time.Second)

	if code := doRequest(handler, "10.0.0.3:1000").Code; code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := doRequest(handler, "10.0.0.3:1000").Code; code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}

	mr.FastForward(2 * time.Second)

	if code := doRequest(handler, "10.0.0.3:1000").Code; code != http.StatusOK {
		t.Errorf("expected counter reset after window, got %d", code)
	}
}

func TestRateLimit_HeadersCountDown(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 3, time.Minute)

	for i := 1; i <= 3; i++ {
		w := doRequest(handler, "10.0.0.4:1000")
		if got := w.Header().Get("X-RateLimit-Limit"); got != "3" {
			t.Errorf("request %d: expected limit header 3, got %q", i, got)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(3-i) {
			t.Errorf("request %d: expected remaining %d, got %q", i, 3-i, got)
		}
	}

	w := doRequest(handler, "10.0.0.4:1000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" || w.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("expected Retry-After and X-RateLimit-Reset on the blocked response")
	}
}

func TestRateLimit_FailsOpenWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	handler := RateLimitMiddleware(client, RateLimitConfig{
		RequestsPerWindow: 1,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	mr.Close()
	if err := client.Ping(context.Background()).Err(); err == nil {
		t.Skip("redis still reachable after close")
	}

	for i := 0; i < 5; i++ {
		if code := doRequest(handler, "10.0.0.5:1000").Code; code != http.StatusOK {
			t.Fatalf("expected fail-open 200 with redis down, got %d", code)
		}
	}
}
