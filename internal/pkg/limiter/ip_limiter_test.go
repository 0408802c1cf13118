package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLimiterIsSharedPerIP(t *testing.T) {
	l := NewIPRateLimiter(1, 3)

	a := l.GetLimiter("10.0.0.1")
	b := l.GetLimiter("10.0.0.1")
	other := l.GetLimiter("10.0.0.2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestMiddlewareRejectsOverBurst(t *testing.T) {
	l := NewIPRateLimiter(0.001, 2)

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do())
	require.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())

	// A different client still has its full burst.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIPStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.7:55000"
	assert.Equal(t, "192.168.1.7", ClientIP(req))

	req.RemoteAddr = "192.168.1.7"
	assert.Equal(t, "192.168.1.7", ClientIP(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown_ip", ClientIP(req))
}
