package auth

import (
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("test-secret-key")

// 発行したトークンの検証で同じペイロードが得られることを検証（ラウンドトリップ）
func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.Issue(42, "user@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	payload := svc.Verify(token)
	if payload == nil {
		t.Fatal("Verify returned nil for a freshly issued token")
	}
	if payload.UserID != 42 {
		t.Errorf("UserID = %d, want 42", payload.UserID)
	}
	if payload.Email != "user@example.com" {
		t.Errorf("Email = %q, want %q", payload.Email, "user@example.com")
	}
}

// 同一トークンを複数回検証しても毎回同じ結果になることを検証（冪等性）
func TestTokenService_Verify_Idempotent(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.Issue(1, "user@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	first := svc.Verify(token)
	second := svc.Verify(token)
	if first == nil || second == nil {
		t.Fatal("Verify should succeed on every call")
	}
	if *first != *second {
		t.Errorf("payloads differ: %+v vs %+v", first, second)
	}
}

// Issueの入力検証を検証
func TestTokenService_Issue_InvalidInputs(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	cases := []struct {
		name   string
		userID int64
		email  string
	}{
		{"zero user ID", 0, "user@example.com"},
		{"negative user ID", -1, "user@example.com"},
		{"empty email", 1, ""},
		{"whitespace email", 1, "   "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Issue(tc.userID, tc.email); err == nil {
				t.Errorf("Issue(%d, %q) should return error", tc.userID, tc.email)
			}
		})
	}
}

// メールアドレスがトリムされて埋め込まれることを検証
func TestTokenService_Issue_TrimsEmail(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.Issue(1, "  user@example.com  ")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	payload := svc.Verify(token)
	if payload == nil {
		t.Fatal("Verify returned nil")
	}
	if payload.Email != "user@example.com" {
		t.Errorf("Email = %q, want trimmed %q", payload.Email, "user@example.com")
	}
}

// 期限切れトークンが拒否されることを検証
func TestTokenService_Verify_Expired(t *testing.T) {
	// 負のTTLで発行時点から期限切れのトークンを作る
	svc := NewTokenService(testSecret, -time.Hour)

	token, err := svc.Issue(1, "user@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if payload := svc.Verify(token); payload != nil {
		t.Errorf("expired token should be rejected, got payload %+v", payload)
	}
}

// 不正なトークンがすべてnilになることを検証
func TestTokenService_Verify_InvalidTokens(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)
	valid, _ := svc.Issue(1, "user@example.com")

	// 署名部分を改ざんしたトークン
	tampered := valid[:len(valid)-4] + "XXXX"

	// 別の秘密鍵で署名されたトークン
	other := NewTokenService([]byte("another-secret"), time.Hour)
	foreign, _ := other.Issue(1, "user@example.com")

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"garbage", "not.a.jwt"},
		{"structurally broken", "aaaa"},
		{"tampered signature", tampered},
		{"wrong secret", foreign},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if payload := svc.Verify(tc.raw); payload != nil {
				t.Errorf("Verify(%q) = %+v, want nil", tc.raw, payload)
			}
		})
	}
}

// 前後の空白はトリムして検証されることを検証
func TestTokenService_Verify_TrimsWhitespace(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, _ := svc.Issue(1, "user@example.com")

	payload := svc.Verify("  " + token + "\n")
	if payload == nil {
		t.Fatal("Verify should trim surrounding whitespace")
	}
}

// TTL 0はデフォルトTTLにフォールバックすることを検証
func TestNewTokenService_DefaultTTL(t *testing.T) {
	svc := NewTokenService(testSecret, 0)
	if svc.ttl != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", svc.ttl, DefaultTokenTTL)
	}
}

// トークンがJWTの3セグメント構造であることの軽い確認
func TestTokenService_Issue_ProducesJWT(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.Issue(1, "user@example.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("token has %d segments, want 3", len(parts))
	}
}
