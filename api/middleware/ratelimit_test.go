package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig() *RateLimitConfig {
	return &RateLimitConfig{
		IPRequestsPerSecond: 1,
		IPBurst:             3,
		IPBlockDuration:     time.Minute,

		UserRequestsPerSecond: 1,
		UserBurst:             2,

		TxPerSecond: 1,
		TxPerDay:    5,
		TxBurst:     2,

		CleanupInterval: time.Hour,
		BucketTTL:       time.Hour,
	}
}

func TestAllowIPBurst(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.AllowIP("10.0.0.1")
		if !allowed {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}

	allowed, info := rl.AllowIP("10.0.0.1")
	if allowed {
		t.Error("request beyond burst should be rejected")
	}
	if info.RetryAfter <= 0 {
		t.Errorf("expected a positive retry-after, got %d", info.RetryAfter)
	}

	// A different IP has its own bucket
	if allowed, _ := rl.AllowIP("10.0.0.2"); !allowed {
		t.Error("separate IP should have a fresh bucket")
	}
}

func TestAllowTxDailyLimit(t *testing.T) {
	config := testConfig()
	config.TxBurst = 100
	config.TxPerSecond = 100
	rl := NewRateLimiter(config)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := rl.AllowTx("cosmos1user")
		if !allowed {
			t.Fatalf("transaction %d within the daily limit should be allowed", i+1)
		}
	}

	allowed, info := rl.AllowTx("cosmos1user")
	if allowed {
		t.Error("transaction beyond the daily limit should be rejected")
	}
	if info.LimitType != "daily" {
		t.Errorf("expected limit type daily, got %q", info.LimitType)
	}
}

func TestRateLimitMiddlewareBlocks(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest("GET", "/v1/vault/state", nil)
		req.RemoteAddr = "192.168.1.5:1234"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exhausting burst, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on rejection")
	}
}

func TestTxRateLimitMiddlewareRequiresUser(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	handler := TxRateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/v1/vault/deposit", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without an identified user, got %d", rec.Code)
	}

	req = httptest.NewRequest("POST", "/v1/vault/deposit", nil)
	req = req.WithContext(SetUserContext(req.Context(), "cosmos1user"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with an identified user, got %d", rec.Code)
	}
}

func TestBucketRefill(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	bucket := &Bucket{
		tokens:     0,
		maxTokens:  10,
		refillRate: 1000, // fast refill so the test does not sleep long
		lastUpdate: time.Now().Add(-100 * time.Millisecond),
	}

	allowed, _ := rl.tryConsume(bucket, 1)
	if !allowed {
		t.Error("expected refill to make a token available")
	}
}
