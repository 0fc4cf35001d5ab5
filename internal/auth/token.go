package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/irfanmanzoor12/Toda-App/internal/model"
)

// DefaultTokenTTL はトークンのデフォルト有効期間。
const DefaultTokenTTL = 24 * time.Hour

// TokenPayload は検証済みトークンから取り出した所有者情報を表す。
type TokenPayload struct {
	UserID int64
	Email  string
}

// tokenClaims はJWTに埋め込むクレーム構造。
// user_idとemailに加え、iat/expをRegisteredClaimsで保持する。
type tokenClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService はHMAC-SHA256署名付きJWTの発行と検証を提供する。
// 検証は状態を持たず副作用もない。失効リストは持たず、期限切れのみが無効化手段。
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService はTokenServiceを生成する。
// ttlが0以下の場合はDefaultTokenTTLを使用する。
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: secret, ttl: ttl}
}

// Issue は所有者IDとメールアドレスを埋め込んだ署名付きトークンを発行する。
// userIDが正の整数でない、またはemailがトリム後に空の場合はエラーを返す。
func (s *TokenService) Issue(userID int64, email string) (string, error) {
	if userID <= 0 {
		return "", model.NewValidationError("user_idは正の整数でなければなりません")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", model.NewValidationError("emailが空です")
	}

	now := time.Now()
	claims := tokenClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify はトークンを検証し、有効な場合はペイロードを返す。
// 空入力・署名不一致・形式不正・期限切れ・必須クレーム欠落のいずれもnilを返す。
// 同一の有効なトークンを何度検証しても結果は変わらない。
func (s *TokenService) Verify(raw string) *TokenPayload {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil
	}

	// 必須クレームの欠落チェック
	if claims.UserID <= 0 || claims.Email == "" {
		return nil
	}

	return &TokenPayload{UserID: claims.UserID, Email: claims.Email}
}
