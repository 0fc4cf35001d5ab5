package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/irfanmanzoor12/Toda-App/internal/model"
	"github.com/irfanmanzoor12/Toda-App/internal/repository"
)

// PasswordMinLength はパスワードの最小文字数。
const PasswordMinLength = 8

// dummyPassword は存在しないアカウントへのログイン試行時に使う比較対象。
// アカウント有無でbcrypt比較の所要時間が変わると存在が推測できてしまうため、
// 見つからない場合にも必ず一度検証を実行する。
const dummyPassword = "timing-equalizer"

// Service はユーザー登録・認証のビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	hasher    *PasswordHasher
	tokens    *TokenService
	dummyHash string
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, hasher *PasswordHasher, tokens *TokenService) *Service {
	// 起動時に1回だけダミーハッシュを計算しておく
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		// ハッシュ化自体が失敗する構成（不正なコスト等）は起動時に検出する
		panic(fmt.Sprintf("auth: failed to precompute dummy hash: %v", err))
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummyHash,
	}
}

// NormalizeEmail はメールアドレスを正規化する（トリム + 小文字化）。
// 比較・保存の前に必ず適用する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmail は正規化済みメールアドレスの形式を検証する。
// 「@」がちょうど1つでローカル部・ドメイン部が空でなく、ドメインに「.」を含むこと。
func validateEmail(email string) error {
	if email == "" {
		return model.NewValidationError("メールアドレスが空です")
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return model.NewValidationError("メールアドレスの形式が不正です")
	}
	if !strings.Contains(domain, ".") {
		return model.NewValidationError("メールアドレスの形式が不正です")
	}
	return nil
}

// Register は新規ユーザーを登録する。
// メールアドレスは正規化され、大文字小文字を区別せず一意性が検証される。
// 検証順序: メール形式 → 重複 → パスワード。ハッシュ化に失敗した場合は何も永続化されない。
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailAlreadyRegisteredError()
	}

	if password == "" {
		return nil, model.NewValidationError("パスワードが空です")
	}
	if len(password) < PasswordMinLength {
		return nil, model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上必要です", PasswordMinLength))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &model.User{
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		// 同時登録の競合はリポジトリ層でEMAIL_ALREADY_REGISTEREDに変換される
		return nil, err
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
	)

	return user, nil
}

// Authenticate はメールアドレスとパスワードでユーザーを認証する。
// アカウント不在とパスワード不一致はどちらもnilを返し、呼び出し側から区別できない。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, nil
	}
	email = NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// アカウント不在でも検証時間を揃える
		s.hasher.Verify(password, s.dummyHash)
		return nil, nil
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil
	}

	return user, nil
}

// Login は認証に成功した場合にアクセストークンを発行する。
// 認証失敗はUNAUTHORIZED（統一メッセージ）を返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", model.NewUnauthorizedError()
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
	)

	return token, nil
}

// GetUser は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (s *Service) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.FindByID(ctx, userID)
}
