package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// newTestLimiter はテスト用RateLimiterを生成し、終了時に停止を予約する。
func newTestLimiter(t *testing.T, cfg RateLimiterConfig) *RateLimiter {
	t.Helper()
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}
	rl := NewRateLimiter(cfg)
	t.Cleanup(rl.Stop)
	return rl
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// doAsUser は指定ユーザーIDのコンテキスト付きでGETを実行する。
func doAsUser(handler http.Handler, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), userID))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// doFromIP は指定接続元アドレスでログインPOSTを実行する。
func doFromIP(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimitGeneral_AllowsBurst(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 2, GeneralBurst: 5,
		AuthRate: 1, AuthBurst: 10,
	})
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 5; i++ {
		if w := doAsUser(handler, 1); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimitGeneral_Returns429PastBurst(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 1, GeneralBurst: 2,
		AuthRate: 1, AuthBurst: 10,
	})
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		if w := doAsUser(handler, 42); w.Code != http.StatusOK {
			t.Fatalf("request %d within burst: status = %d", i, w.Code)
		}
	}
	if w := doAsUser(handler, 42); w.Code != http.StatusTooManyRequests {
		t.Errorf("request past burst: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestRateLimitGeneral_SetsRetryAfterHeader(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 1, GeneralBurst: 1,
		AuthRate: 1, AuthBurst: 10,
	})
	handler := rl.GeneralMiddleware()(okHandler())

	doAsUser(handler, 7)
	w := doAsUser(handler, 7)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	retryAfter := w.Header().Get("Retry-After")
	if retryAfter == "" {
		t.Fatal("Retry-After header is missing")
	}
	secs, err := strconv.Atoi(retryAfter)
	if err != nil {
		t.Fatalf("Retry-After should be integer seconds, got %q", retryAfter)
	}
	if secs < 1 {
		t.Errorf("Retry-After = %d, want >= 1", secs)
	}
}

// 一方のユーザーがバーストを使い切っても他ユーザーには影響しない
func TestRateLimitGeneral_IsolatesUsers(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 1, GeneralBurst: 1,
		AuthRate: 1, AuthBurst: 10,
	})
	handler := rl.GeneralMiddleware()(okHandler())

	if w := doAsUser(handler, 1); w.Code != http.StatusOK {
		t.Fatalf("user 1 first request: status = %d", w.Code)
	}
	if w := doAsUser(handler, 1); w.Code != http.StatusTooManyRequests {
		t.Errorf("user 1 second request: status = %d, want 429", w.Code)
	}
	if w := doAsUser(handler, 2); w.Code != http.StatusOK {
		t.Errorf("user 2 first request: status = %d, want 200", w.Code)
	}
}

func TestRateLimitGeneral_NoUserID_Returns401(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 2, GeneralBurst: 5,
		AuthRate: 1, AuthBurst: 10,
	})
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for unauthenticated request")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRateLimitAuth_AllowsBurst(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 100, GeneralBurst: 200,
		AuthRate: 1, AuthBurst: 3,
	})
	handler := rl.AuthMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		if w := doFromIP(handler, "192.0.2.1:54321"); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimitAuth_Returns429PastBurst(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 100, GeneralBurst: 200,
		AuthRate: 1, AuthBurst: 1,
	})
	handler := rl.AuthMiddleware()(okHandler())

	if w := doFromIP(handler, "192.0.2.2:54321"); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", w.Code)
	}
	w := doFromIP(handler, "192.0.2.2:54321")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header is missing")
	}
}

// キーはIP単位。ポートが違っても同一IPなら同じバケット、別IPは別バケット
func TestRateLimitAuth_KeyedByClientIP(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 100, GeneralBurst: 200,
		AuthRate: 1, AuthBurst: 1,
	})
	handler := rl.AuthMiddleware()(okHandler())

	doFromIP(handler, "192.0.2.10:1000")
	if w := doFromIP(handler, "192.0.2.10:2000"); w.Code != http.StatusTooManyRequests {
		t.Errorf("same IP, different port: status = %d, want 429", w.Code)
	}
	if w := doFromIP(handler, "192.0.2.20:1000"); w.Code != http.StatusOK {
		t.Errorf("different IP: status = %d, want 200", w.Code)
	}
}

// 認証系と一般系のバケットは独立している
func TestRateLimit_AuthAndGeneralAreIndependent(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 1, GeneralBurst: 1,
		AuthRate: 1, AuthBurst: 1,
	})
	generalHandler := rl.GeneralMiddleware()(okHandler())
	authHandler := rl.AuthMiddleware()(okHandler())

	// 一般系のバーストを使い切る
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), 9))
	req.RemoteAddr = "192.0.2.30:1000"
	w := httptest.NewRecorder()
	generalHandler.ServeHTTP(w, req)

	if w2 := doFromIP(authHandler, "192.0.2.30:1000"); w2.Code != http.StatusOK {
		t.Errorf("auth endpoint should not share the general bucket: status = %d", w2.Code)
	}
}

func TestRateLimit_429BodyIsUnifiedEnvelope(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 1, GeneralBurst: 1,
		AuthRate: 1, AuthBurst: 10,
	})
	handler := rl.GeneralMiddleware()(okHandler())

	doAsUser(handler, 11)
	w := doAsUser(handler, 11)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode 429 body: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q, want RATE_LIMIT_EXCEEDED", body.Code)
	}
	if body.Message == "" || body.Category == "" {
		t.Error("429 body should carry message and category")
	}
}

func TestRateLimiter_EvictsIdleEntries(t *testing.T) {
	rl := newTestLimiter(t, RateLimiterConfig{
		GeneralRate: 2, GeneralBurst: 5,
		AuthRate: 1, AuthBurst: 10,
		CleanupInterval: 50 * time.Millisecond,
	})
	handler := rl.GeneralMiddleware()(okHandler())

	doAsUser(handler, 99)
	if rl.GeneralLimiterCount() == 0 {
		t.Fatal("expected a limiter entry after the first request")
	}

	// TTLは掃除間隔の2倍（100ms）。200ms待てば掃除済みのはず
	time.Sleep(200 * time.Millisecond)

	if count := rl.GeneralLimiterCount(); count != 0 {
		t.Errorf("idle entries remaining after cleanup: %d", count)
	}
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralRate != 2.0 {
		t.Errorf("GeneralRate = %v, want 2.0 (120 req/min)", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.AuthRate <= 0 {
		t.Error("AuthRate must be positive")
	}
	if cfg.AuthBurst != 10 {
		t.Errorf("AuthBurst = %d, want 10", cfg.AuthBurst)
	}
	if cfg.CleanupInterval <= 0 {
		t.Error("CleanupInterval must be positive")
	}
}
