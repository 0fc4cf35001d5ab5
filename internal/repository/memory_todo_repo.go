package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/irfanmanzoor12/Toda-App/internal/model"
)

// MemoryTodoRepo はインメモリのTodoリポジトリ。
// テストおよびDBなしでの動作確認に使用する。並行アクセスに対して安全。
type MemoryTodoRepo struct {
	mu     sync.RWMutex
	todos  map[int64]*model.Todo
	nextID int64
}

// NewMemoryTodoRepo はMemoryTodoRepoを生成する。
func NewMemoryTodoRepo() *MemoryTodoRepo {
	return &MemoryTodoRepo{
		todos:  make(map[int64]*model.Todo),
		nextID: 1,
	}
}

// Create はTodoを作成し、連番のIDを採番して返す。
func (r *MemoryTodoRepo) Create(ctx context.Context, todo *model.Todo) (*model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *todo
	created.ID = r.nextID
	created.CreatedAt = time.Now().UTC()
	r.nextID++
	r.todos[created.ID] = &created

	copied := created
	return &copied, nil
}

// ListByUserID は指定ユーザーのTodo一覧を作成順（ID昇順）で返す。
func (r *MemoryTodoRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	todos := []*model.Todo{}
	for _, t := range r.todos {
		if t.UserID == userID {
			copied := *t
			todos = append(todos, &copied)
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })

	return todos, nil
}

// FindByIDAndUserID はIDと所有者IDでTodoを取得する。対象がない場合はnilを返す。
func (r *MemoryTodoRepo) FindByIDAndUserID(ctx context.Context, todoID, userID int64) (*model.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.todos[todoID]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

// Update はタイトル・説明・状態を所有者フィルタ付きで更新する。対象がない場合はnilを返す。
func (r *MemoryTodoRepo) Update(ctx context.Context, todo *model.Todo) (*model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[todo.ID]
	if !ok || t.UserID != todo.UserID {
		return nil, nil
	}

	t.Title = todo.Title
	t.Description = todo.Description
	t.Status = todo.Status

	copied := *t
	return &copied, nil
}

// MarkComplete は状態をcompleteに更新する。既にcompleteでも成功する。
// 対象がない場合はnilを返す。
func (r *MemoryTodoRepo) MarkComplete(ctx context.Context, todoID, userID int64) (*model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[todoID]
	if !ok || t.UserID != userID {
		return nil, nil
	}

	t.Status = model.TodoStatusComplete

	copied := *t
	return &copied, nil
}

// DeleteByIDAndUserID は所有者フィルタ付きでTodoを削除する。
func (r *MemoryTodoRepo) DeleteByIDAndUserID(ctx context.Context, todoID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[todoID]
	if !ok || t.UserID != userID {
		return false, nil
	}

	delete(r.todos, todoID)
	return true, nil
}

// compile-time interface check
var _ TodoRepository = (*MemoryTodoRepo)(nil)
