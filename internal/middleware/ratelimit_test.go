package middleware

import (
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRateLimitedHandler(t *testing.T, limit int, window time.Duration) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	config := RateLimitConfig{RequestsPerWindow: limit, Window: window, KeyPrefix: "tanepro_login"}
	handler := RateLimitMiddleware(client, config, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return handler, mr
}

func loginRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	return req
}

// Feature: b2b-portal, Property 15: Login attempts beyond the window limit are rejected
func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("exactly limit requests pass, the rest get 429", prop.ForAll(
		func(limit int, excess int) bool {
			handler, _ := newRateLimitedHandler(t, limit, time.Minute)

			passed, blocked := 0, 0
			for i := 0; i < limit+excess; i++ {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, loginRequest("192.168.1.100:51234"))
				switch w.Code {
				case http.StatusOK:
					passed++
				case http.StatusTooManyRequests:
					blocked++
				}
			}

			if passed != limit || blocked != excess {
				t.Logf("FAIL: limit %d excess %d, passed %d blocked %d", limit, excess, passed, blocked)
				return false
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_Headers(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 2, time.Minute)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, loginRequest("10.0.0.1:1000"))
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	handler.ServeHTTP(httptest.NewRecorder(), loginRequest("10.0.0.1:1000"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, loginRequest("10.0.0.1:1000"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 60, retryAfter, 1)
}

func TestRateLimit_ClientsAreCountedSeparately(t *testing.T) {
	handler, _ := newRateLimitedHandler(t, 1, time.Minute)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, loginRequest("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, w.Code)

	// a new port on the same host is the same client
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, loginRequest("10.0.0.1:2000"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, loginRequest("10.0.0.2:1000"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_WindowExpires(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 1, time.Minute)

	handler.ServeHTTP(httptest.NewRecorder(), loginRequest("10.0.0.1:1000"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, loginRequest("10.0.0.1:1000"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	mr.FastForward(time.Minute + time.Second)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, loginRequest("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_FailsOpenWithoutRedis(t *testing.T) {
	handler, mr := newRateLimitedHandler(t, 1, time.Minute)
	mr.Close()

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, loginRequest("10.0.0.1:1000"))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
