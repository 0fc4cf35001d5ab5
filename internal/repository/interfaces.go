// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/irfanmanzoor12/Toda-App/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成し、IDを採番した結果を返す。
	// 正規化済みメールアドレスが重複している場合はAPIError（EMAIL_ALREADY_REGISTERED）を返す。
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// TodoRepository はTodoデータの永続化インターフェース。
// 全操作が所有者IDでフィルタされる。所有者不一致は「存在しない」と区別されない。
type TodoRepository interface {
	// Create はTodoを作成し、IDを採番した結果を返す。
	Create(ctx context.Context, todo *model.Todo) (*model.Todo, error)

	// ListByUserID は指定ユーザーのTodo一覧を作成順（ID昇順）で返す。
	// 1件もない場合は空スライスを返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Todo, error)

	// FindByIDAndUserID はIDと所有者IDでTodoを取得する。
	// 存在しない、または他ユーザー所有の場合はnilを返す。
	FindByIDAndUserID(ctx context.Context, todoID, userID int64) (*model.Todo, error)

	// Update はタイトル・説明・状態を所有者フィルタ付きで更新する。
	// 対象行がない場合はnilを返す。
	Update(ctx context.Context, todo *model.Todo) (*model.Todo, error)

	// MarkComplete は状態をcompleteに更新し、更新後のTodoを返す。
	// 既にcompleteの場合もそのまま成功する（単一行の単調な更新のため並行実行でも安全）。
	// 対象行がない場合はnilを返す。
	MarkComplete(ctx context.Context, todoID, userID int64) (*model.Todo, error)

	// DeleteByIDAndUserID は所有者フィルタ付きでTodoを削除する。
	// 削除した場合はtrue、対象行がない場合はfalseを返す（エラーにはしない）。
	DeleteByIDAndUserID(ctx context.Context, todoID, userID int64) (bool, error)
}
