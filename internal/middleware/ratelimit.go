package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/irfanmanzoor12/Toda-App/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // 認証済みAPI全般のレート（req/sec）
	GeneralBurst    int           // API全般のバーストサイズ
	AuthRate        rate.Limit    // 登録・ログインのレート（req/sec）
	AuthBurst       int           // 登録・ログインのバーストサイズ
	CleanupInterval time.Duration // 非アクティブエントリの掃除間隔
}

// DefaultRateLimiterConfig はデフォルト設定を返す。
// API全般は120 req/min/user、認証エンドポイントはブルートフォース抑止のため
// 10 req/min/IPに絞る。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0),
		GeneralBurst:    120,
		AuthRate:        rate.Limit(10.0 / 60.0),
		AuthBurst:       10,
		CleanupInterval: 5 * time.Minute,
	}
}

// limiterEntry はキー1つ分のトークンバケットと最終アクセス時刻。
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet はキー（ユーザーIDまたはIP）ごとのリミッター集合。
type limiterSet struct {
	mu      sync.RWMutex
	entries map[string]*limiterEntry
	rate    rate.Limit
	burst   int
}

func newLimiterSet(r rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		entries: make(map[string]*limiterEntry),
		rate:    r,
		burst:   burst,
	}
}

// get はキーに対応するリミッターを返す。なければ作る。
func (ls *limiterSet) get(key string) *rate.Limiter {
	now := time.Now()

	ls.mu.RLock()
	entry, ok := ls.entries[key]
	ls.mu.RUnlock()
	if ok {
		ls.mu.Lock()
		entry.lastSeen = now
		ls.mu.Unlock()
		return entry.limiter
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	// RLock解放とLock取得の間に他ゴルーチンが作成している可能性がある
	if entry, ok := ls.entries[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(ls.rate, ls.burst)
	ls.entries[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// evictIdle はlastSeenがttlより古いエントリを削除する。
func (ls *limiterSet) evictIdle(ttl time.Duration) {
	now := time.Now()
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for key, entry := range ls.entries {
		if now.Sub(entry.lastSeen) > ttl {
			delete(ls.entries, key)
		}
	}
}

func (ls *limiterSet) count() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.entries)
}

// RateLimiter は2系統のレート制限を提供する。
// 認証済みAPI全般はユーザーID単位、未認証の登録・ログインは接続元IP単位。
type RateLimiter struct {
	config  RateLimiterConfig
	general *limiterSet
	auth    *limiterSet
	stopCh  chan struct{}
}

// NewRateLimiter はRateLimiterを生成し、掃除ゴルーチンを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newLimiterSet(config.GeneralRate, config.GeneralBurst),
		auth:    newLimiterSet(config.AuthRate, config.AuthBurst),
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop は掃除ゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware は認証済みAPI向けのレート制限ミドルウェアを返す。
// 認証ミドルウェアより後段に積むこと。コンテキストにユーザーIDがなければ401。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenInvalidError())
				return
			}
			key := strconv.FormatInt(userID, 10)

			if !rl.general.get(key).Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("limit_type", "general"),
					slog.String("user_id", key),
				)
				writeRateLimitResponse(w, rl.config.GeneralRate)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware は登録・ログイン向けのレート制限ミドルウェアを返す。
// 未認証リクエストが対象のため接続元IPをキーにする。
func (rl *RateLimiter) AuthMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			if !rl.auth.get(key).Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("limit_type", "auth"),
					slog.String("ip", key),
				)
				writeRateLimitResponse(w, rl.config.AuthRate)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は保持中のユーザー別リミッター数を返す（テスト用）。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.count()
}

// AuthLimiterCount は保持中のIP別リミッター数を返す（テスト用）。
func (rl *RateLimiter) AuthLimiterCount() int {
	return rl.auth.count()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	// バースト消化後の再アクセス猶予としてTTLは掃除間隔の2倍
	ttl := rl.config.CleanupInterval * 2

	for {
		select {
		case <-ticker.C:
			rl.general.evictIdle(ttl)
			rl.auth.evictIdle(ttl)
		case <-rl.stopCh:
			return
		}
	}
}

// clientIP は接続元IPアドレスを取り出す。ポート部は除く。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse はRetry-Afterヘッダー付きの429レスポンスを書き込む。
// Retry-Afterは1トークンが補充されるまでの秒数（最低1秒）。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitError())
}
