package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/woudc-registry/internal/config"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.RemoteAddr))
})

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted keeps remote", nil, "203.0.113.9:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9:4000"},
		{"trusted uses real ip", []string{"10.0.0.0/8"}, "10.1.2.3:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted uses first forwarded hop", []string{"10.0.0.0/8"}, "10.1.2.3:4000", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.2.3"}, "5.6.7.8"},
		{"bare address is a /32", []string{"127.0.0.1"}, "127.0.0.1:9", map[string]string{"X-Real-IP": "9.9.9.9"}, "9.9.9.9"},
		{"invalid header ignored", []string{"10.0.0.0/8"}, "10.1.2.3:4000", map[string]string{"X-Real-IP": "not-an-ip"}, "10.1.2.3:4000"},
		{"invalid cidr skipped", []string{"bogus"}, "10.1.2.3:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "10.1.2.3:4000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			TrustedRealIP(tt.trusted)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}
	handler := APIKeyAuth(cfg)(ok)

	tests := []struct {
		name   string
		key    string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "AUTH_MISSING_KEY"},
		{"wrong", "gamma", http.StatusForbidden, "AUTH_INVALID_KEY"},
		{"first key", "alpha", http.StatusOK, ""},
		{"second key", "beta", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/catalog/reload", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				var body map[string]string
				if assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body)) {
					assert.Equal(t, tt.code, body["code"])
				}
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	handler := APIKeyAuth(&config.SecurityConfig{})(ok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(60, 3)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.1.1.1"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("1.1.1.1"), "burst exhausted")
	assert.True(t, rl.Allow("2.2.2.2"), "clients have separate buckets")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.1.1.1"), "one token refills per second at 60/min")
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("1.1.1.1")
	now = now.Add(visitorTTL / 2)
	rl.Allow("2.2.2.2")
	now = now.Add(visitorTTL/2 + time.Second)
	rl.Sweep()

	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiter_Handler(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	handler := rl.Handler(ok)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:1234"
	handler.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	var body map[string]string
	if assert.NoError(t, json.Unmarshal(second.Body.Bytes(), &body)) {
		assert.Equal(t, "RATE001", body["code"])
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
