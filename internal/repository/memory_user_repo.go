package repository

import (
	"context"
	"sync"
	"time"

	"github.com/irfanmanzoor12/Toda-App/internal/model"
)

// MemoryUserRepo はインメモリのユーザーリポジトリ。
// テストおよびDBなしでの動作確認に使用する。並行アクセスに対して安全。
type MemoryUserRepo struct {
	mu     sync.RWMutex
	users  map[int64]*model.User
	nextID int64
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users:  make(map[int64]*model.User),
		nextID: 1,
	}
}

// Create はユーザーを作成し、連番のIDを採番して返す。
// メールアドレスが既に存在する場合はEMAIL_ALREADY_REGISTEREDを返す。
func (r *MemoryUserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, model.NewEmailAlreadyRegisteredError()
		}
	}

	created := *user
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()
	r.nextID++
	r.users[created.ID] = &created

	copied := created
	return &copied, nil
}

// FindByEmail は正規化済みメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

// compile-time interface check
var _ UserRepository = (*MemoryUserRepo)(nil)
