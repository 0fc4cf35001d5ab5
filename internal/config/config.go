// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config は起動時に1回読み込む全設定。以降は読み取り専用として扱う。
type Config struct {
	DatabaseURL string

	// トークン発行
	JWTSecret string
	JWTTTL    time.Duration

	BcryptCost int

	// レート制限（req/min単位）
	RateLimitGeneral int
	RateLimitAuth    int

	ServerPort        string
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを構築する。
// 必須変数（DATABASE_URL、JWT_SECRET）が欠けている場合は
// 不足分をまとめて1つのエラーで返す。
func Load() (*Config, error) {
	var missing []string
	require := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		DatabaseURL: require("DATABASE_URL"),
		JWTSecret:   require("JWT_SECRET"),
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}

	cfg.JWTTTL = envDuration("JWT_TTL", 24*time.Hour)
	cfg.BcryptCost = envInt("BCRYPT_COST", 12)
	cfg.RateLimitGeneral = envInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = envInt("RATE_LIMIT_AUTH", 10)
	cfg.ServerPort = envString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = envString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// 以下のenv*ヘルパーは未設定・解釈不能な値をデフォルトに倒す。
// 起動を止めるほどの設定ミスは必須変数のチェックだけに限定している。

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
