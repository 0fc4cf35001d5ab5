package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/irfanmanzoor12/Toda-App/internal/model"
)

// PostgresTodoRepo はPostgreSQLを使用したTodoリポジトリ。
// 全クエリがidとuser_idの両方でフィルタされるため、
// 「存在しない」と「他ユーザー所有」はSQLレベルで区別されない。
type PostgresTodoRepo struct {
	db *sql.DB
}

// NewPostgresTodoRepo はPostgresTodoRepoを生成する。
func NewPostgresTodoRepo(db *sql.DB) *PostgresTodoRepo {
	return &PostgresTodoRepo{db: db}
}

// Create はTodoを作成し、採番されたIDと作成日時を反映して返す。
func (r *PostgresTodoRepo) Create(ctx context.Context, todo *model.Todo) (*model.Todo, error) {
	created := *todo
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO todos (user_id, title, description, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		todo.UserID, todo.Title, todo.Description, todo.Status,
	).Scan(&created.ID, &created.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to insert todo: %w", err)
	}

	return &created, nil
}

// ListByUserID は指定ユーザーのTodo一覧を作成順（ID昇順）で返す。
func (r *PostgresTodoRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, status, created_at
		 FROM todos
		 WHERE user_id = $1
		 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []*model.Todo{}
	for rows.Next() {
		todo := &model.Todo{}
		if err := rows.Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Status, &todo.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}

	return todos, nil
}

// FindByIDAndUserID はIDと所有者IDでTodoを取得する。対象行がない場合はnilを返す。
func (r *PostgresTodoRepo) FindByIDAndUserID(ctx context.Context, todoID, userID int64) (*model.Todo, error) {
	todo := &model.Todo{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, status, created_at
		 FROM todos
		 WHERE id = $1 AND user_id = $2`,
		todoID, userID,
	).Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Status, &todo.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}

	return todo, nil
}

// Update はタイトル・説明・状態を所有者フィルタ付きで更新する。対象行がない場合はnilを返す。
func (r *PostgresTodoRepo) Update(ctx context.Context, todo *model.Todo) (*model.Todo, error) {
	updated := &model.Todo{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE todos
		 SET title = $1, description = $2, status = $3
		 WHERE id = $4 AND user_id = $5
		 RETURNING id, user_id, title, description, status, created_at`,
		todo.Title, todo.Description, todo.Status, todo.ID, todo.UserID,
	).Scan(&updated.ID, &updated.UserID, &updated.Title, &updated.Description, &updated.Status, &updated.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	return updated, nil
}

// MarkComplete は状態をcompleteに更新する。単一行のUPDATEなので
// 同一Todoへの並行呼び出しはどちらも成功し、最終状態は常にcompleteになる。
// 対象行がない場合はnilを返す。
func (r *PostgresTodoRepo) MarkComplete(ctx context.Context, todoID, userID int64) (*model.Todo, error) {
	todo := &model.Todo{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE todos
		 SET status = $1
		 WHERE id = $2 AND user_id = $3
		 RETURNING id, user_id, title, description, status, created_at`,
		model.TodoStatusComplete, todoID, userID,
	).Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Status, &todo.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark todo complete: %w", err)
	}

	return todo, nil
}

// DeleteByIDAndUserID は所有者フィルタ付きでTodoを削除する。
func (r *PostgresTodoRepo) DeleteByIDAndUserID(ctx context.Context, todoID, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = $1 AND user_id = $2`,
		todoID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete todo: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// compile-time interface check
var _ TodoRepository = (*PostgresTodoRepo)(nil)
