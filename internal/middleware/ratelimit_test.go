package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Handler(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("burst then throttle per caller", func(t *testing.T) {
		rl := NewRateLimiter(0.001, 2)
		handler := rl.Handler(ok)

		send := func(remote string, session *Session) int {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chapters/unlock", nil)
			req.RemoteAddr = remote
			if session != nil {
				req = req.WithContext(WithSession(req.Context(), session))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec.Code
		}

		assert.Equal(t, http.StatusOK, send("10.0.0.1:1111", nil))
		assert.Equal(t, http.StatusOK, send("10.0.0.1:2222", nil))
		assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:3333", nil))

		// a different caller has its own budget
		assert.Equal(t, http.StatusOK, send("10.0.0.2:1111", nil))
		assert.Equal(t, http.StatusOK, send("10.0.0.1:1111", &Session{UserID: "reader-1"}))
	})

	t.Run("cleanup drops idle callers", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		rl.now = func() time.Time { return now }

		rl.limiter("ip:10.0.0.1")
		now = now.Add(time.Minute)
		rl.limiter("ip:10.0.0.2")

		now = now.Add(rl.idle - 30*time.Second)
		rl.Cleanup()

		assert.NotContains(t, rl.limiters, "ip:10.0.0.1")
		assert.Contains(t, rl.limiters, "ip:10.0.0.2")
	})
}
