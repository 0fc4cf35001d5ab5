// Package auth はパスワード認証、JWTトークンの発行・検証を提供する。
package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/irfanmanzoor12/Toda-App/internal/model"
)

// DefaultBcryptCost はbcryptのデフォルトコストファクタ。
// ブルートフォース攻撃に耐える強度としてコスト12を基準にする。
const DefaultBcryptCost = 12

// PasswordHasher はbcryptによるパスワードハッシュ化と検証を提供する。
// コストは構築時に注入する。テストでは低コスト、本番では12以上を想定。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを生成する。
// costが0以下の場合はDefaultBcryptCostを使用する。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash はパスワードをbcryptでハッシュ化する。
// bcryptは呼び出しごとに新しいソルトを埋め込むため、同一入力でも毎回異なるダイジェストになる。
// 空パスワードはエラーを返す。
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", model.NewValidationError("パスワードが空です")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify はパスワードとダイジェストの一致を検証する。
// 空入力や不正な形式のダイジェストではfalseを返し、決してエラーにしない。
// 比較はbcrypt内部で定数時間で行われる。
func (h *PasswordHasher) Verify(password, digest string) bool {
	if password == "" || digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
