package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newRateLimitedHandler(t *testing.T, mr *miniredis.Miniredis, requestsPerWindow int) http.Handler {
	t.Helper()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: requestsPerWindow,
		Window:            time.Minute,
		KeyPrefix:         "test",
	}

	return RateLimitMiddleware(redisClient, config, zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)
}

func TestProperty_RateLimitBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests beyond the window limit get 429", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("failed to start miniredis: %v", err)
				return false
			}
			defer mr.Close()

			handler := newRateLimitedHandler(t, mr, requestsPerWindow)

			// Requests within the limit succeed
			for i := 0; i < requestsPerWindow; i++ {
				w := httptest.NewRecorder()
				req := httptest.NewRequest("GET", "/test", nil)
				req.RemoteAddr = "10.0.0.1:1234"
				handler.ServeHTTP(w, req)
				if w.Code != http.StatusOK {
					return false
				}
			}

			// Everything beyond it is blocked
			for i := 0; i < excessRequests; i++ {
				w := httptest.NewRecorder()
				req := httptest.NewRequest("GET", "/test", nil)
				req.RemoteAddr = "10.0.0.1:1234"
				handler.ServeHTTP(w, req)
				if w.Code != http.StatusTooManyRequests {
					return false
				}
			}

			return true
		},
		gen.IntRange(1, 50),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

func TestRateLimitHeadersAreSet(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	handler := newRateLimitedHandler(t, mr, 10)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(w, req)

	if w.Header().Get("X-RateLimit-Limit") != "10" {
		t.Errorf("expected limit header 10, got %q", w.Header().Get("X-RateLimit-Limit"))
	}
	if w.Header().Get("X-RateLimit-Remaining") != "9" {
		t.Errorf("expected remaining header 9, got %q", w.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	handler := newRateLimitedHandler(t, mr, 1)

	first := httptest.NewRecorder()
	reqA := httptest.NewRequest("GET", "/test", nil)
	reqA.RemoteAddr = "10.0.0.3:1234"
	handler.ServeHTTP(first, reqA)

	blocked := httptest.NewRecorder()
	handler.ServeHTTP(blocked, reqA)
	if blocked.Code != http.StatusTooManyRequests {
		t.Errorf("expected second request from same client blocked, got %d", blocked.Code)
	}

	other := httptest.NewRecorder()
	reqB := httptest.NewRequest("GET", "/test", nil)
	reqB.RemoteAddr = "10.0.0.4:1234"
	handler.ServeHTTP(other, reqB)
	if other.Code != http.StatusOK {
		t.Errorf("expected other client unaffected, got %d", other.Code)
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	handler := newRateLimitedHandler(t, mr, 1)
	mr.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected request to pass when redis is down, got %d", w.Code)
	}
}
