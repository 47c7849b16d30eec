package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// testRateLimiterConfig はテスト用の小さなバーストを持つ設定を返す。
func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0), // テスト中にトークンが補充されない程度に遅く
		GeneralBurst:    3,
		UploadRate:      rate.Limit(1.0 / 60.0),
		UploadBurst:     2,
		CleanupInterval: time.Hour,
	}
}

func newTestRequest(sid string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/contests", nil)
	if sid != "" {
		req = req.WithContext(ContextWithSID(req.Context(), sid))
	}
	return req
}

// TestRateLimiter_GeneralAllowsWithinBurst はバースト内のリクエストが許可されることを検証する。
func TestRateLimiter_GeneralAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newTestRequest("sid-1"))
		if w.Result().StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, w.Result().StatusCode, http.StatusOK)
		}
	}
}

// TestRateLimiter_GeneralRejectsOverBurst はバースト超過で429が返ることを検証する。
func TestRateLimiter_GeneralRejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newTestRequest("sid-1"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newTestRequest("sid-1"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-Afterヘッダーが設定されていない")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["code"] != "rate_limit_exceeded" {
		t.Errorf("code = %q, want %q", body["code"], "rate_limit_exceeded")
	}
}

// TestRateLimiter_IsolatesSessions はセッションごとに独立したバケットを持つことを検証する。
func TestRateLimiter_IsolatesSessions(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// sid-1のバーストを使い切る
	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), newTestRequest("sid-1"))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newTestRequest("sid-1"))
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Fatalf("sid-1: status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}

	// 別セッションは影響を受けない
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, newTestRequest("sid-2"))
	if w2.Result().StatusCode != http.StatusOK {
		t.Errorf("sid-2: status = %d, want %d", w2.Result().StatusCode, http.StatusOK)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("general limiter count = %d, want 2", got)
	}
}

// TestRateLimiter_UploadBucketIsIndependent はアップロード制限が全般制限と独立であることを検証する。
func TestRateLimiter_UploadBucketIsIndependent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	upload := rl.UploadMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// アップロードバースト（2）を使い切る
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		upload.ServeHTTP(w, newTestRequest("sid-1"))
		if w.Result().StatusCode != http.StatusOK {
			t.Fatalf("upload %d: status = %d, want %d", i+1, w.Result().StatusCode, http.StatusOK)
		}
	}
	w := httptest.NewRecorder()
	upload.ServeHTTP(w, newTestRequest("sid-1"))
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Fatalf("upload over burst: status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}

	// 全般のバケットは消費されていない
	w2 := httptest.NewRecorder()
	general.ServeHTTP(w2, newTestRequest("sid-1"))
	if w2.Result().StatusCode != http.StatusOK {
		t.Errorf("general after upload exhaustion: status = %d, want %d", w2.Result().StatusCode, http.StatusOK)
	}
}

// TestRateLimiter_FallsBackToRemoteAddr はセッションID未解決時にリモートアドレスでキー付けすることを検証する。
func TestRateLimiter_FallsBackToRemoteAddr(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := newTestRequest("")
	req.RemoteAddr = "203.0.113.5:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if got := rl.GeneralLimiterCount(); got != 1 {
		t.Errorf("general limiter count = %d, want 1", got)
	}
}

// TestRateLimiter_CleanupRemovesStaleEntries は期限切れエントリが削除されることを検証する。
func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	config := testRateLimiterConfig()
	config.CleanupInterval = 10 * time.Millisecond
	rl := NewRateLimiter(config)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), newTestRequest("sid-stale"))

	if got := rl.GeneralLimiterCount(); got != 1 {
		t.Fatalf("general limiter count = %d, want 1", got)
	}

	// TTL（CleanupIntervalの2倍）経過後のクリーンアップでエントリが消えるのを待つ
	deadline := time.Now().Add(time.Second)
	for rl.GeneralLimiterCount() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("期限切れエントリがクリーンアップされない")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
