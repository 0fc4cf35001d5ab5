package model

import "time"

// TodoStatus はTodoの状態を表す。
type TodoStatus string

const (
	// TodoStatusPending は未完了の状態。
	TodoStatusPending TodoStatus = "pending"
	// TodoStatusComplete は完了済みの状態。
	TodoStatusComplete TodoStatus = "complete"
)

// Todoの入力フィールドの長さ制限。
const (
	// TodoTitleMaxLength はタイトルの最大文字数（トリム後）。
	TodoTitleMaxLength = 500
	// TodoDescriptionMaxLength は説明の最大文字数。
	TodoDescriptionMaxLength = 2000
)

// Todo はユーザーが所有するタスクを表す。
// UserIDは作成後に変更されない。所有者以外からは参照も変更もできない。
type Todo struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Status      TodoStatus
	CreatedAt   time.Time
}
