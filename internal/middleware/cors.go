package middleware

import "net/http"

// corsAllowedMethods はこのAPIが公開する全メソッド。
const corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"

// corsAllowedHeaders はBearerトークン送信のためAuthorizationを含む。
const corsAllowedHeaders = "Content-Type, Authorization"

// NewCORSMiddleware は単一オリジン向けのCORSミドルウェアを返す。
// allowedOriginが空の場合はCORSヘッダーを一切付与しない（同一オリジン運用）。
// OPTIONSプリフライトはハンドラへ渡さず204で完結させる。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedOrigin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			h.Set("Access-Control-Max-Age", "86400")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
