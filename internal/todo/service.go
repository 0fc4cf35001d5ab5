// Package todo はTodo管理のドメインロジックを提供する。
// 全操作は検証済みの所有者IDを必須パラメータとして受け取り、
// 所有者以外のTodoには一切アクセスできない。
package todo

import (
	"context"
	"fmt"
	"strings"

	"github.com/irfanmanzoor12/Toda-App/internal/model"
	"github.com/irfanmanzoor12/Toda-App/internal/repository"
)

// Service はTodo管理のサービス層。
// 入力検証と所有者スコープの強制を担う。
type Service struct {
	todos repository.TodoRepository
}

// NewService はServiceを生成する。
func NewService(todos repository.TodoRepository) *Service {
	return &Service{todos: todos}
}

// validateTitle はタイトルを検証し、トリム済みの値を返す。
// トリム後に空、または500文字を超える場合はエラー。
func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", model.NewValidationError("タイトルが空です")
	}
	if len([]rune(trimmed)) > model.TodoTitleMaxLength {
		return "", model.NewValidationError(fmt.Sprintf("タイトルは%d文字以内にしてください", model.TodoTitleMaxLength))
	}
	return trimmed, nil
}

// validateDescription は説明を検証する。2000文字を超える場合はエラー。
func validateDescription(description string) error {
	if len([]rune(description)) > model.TodoDescriptionMaxLength {
		return model.NewValidationError(fmt.Sprintf("説明は%d文字以内にしてください", model.TodoDescriptionMaxLength))
	}
	return nil
}

// Create は所有者のTodoを新規作成する。状態はpending、タイトルはトリムして保存される。
func (s *Service) Create(ctx context.Context, userID int64, title, description string) (*model.Todo, error) {
	trimmed, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	created, err := s.todos.Create(ctx, &model.Todo{
		UserID:      userID,
		Title:       trimmed,
		Description: description,
		Status:      model.TodoStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	return created, nil
}

// List は所有者のTodo一覧を作成順で返す。1件もない場合は空スライス。
func (s *Service) List(ctx context.Context, userID int64) ([]*model.Todo, error) {
	todos, err := s.todos.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// Get は所有者のTodoを1件取得する。
// 存在しない場合と他ユーザー所有の場合はどちらもTODO_NOT_FOUNDになる。
func (s *Service) Get(ctx context.Context, userID, todoID int64) (*model.Todo, error) {
	todo, err := s.todos.FindByIDAndUserID(ctx, todoID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	if todo == nil {
		return nil, model.NewTodoNotFoundError(todoID)
	}
	return todo, nil
}

// Update はタイトル・説明を部分更新する。nilのフィールドは変更しない。
// 指定されたフィールドはCreateと同じ規則で検証される。
func (s *Service) Update(ctx context.Context, userID, todoID int64, title, description *string) (*model.Todo, error) {
	current, err := s.todos.FindByIDAndUserID(ctx, todoID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	if current == nil {
		return nil, model.NewTodoNotFoundError(todoID)
	}

	if title != nil {
		trimmed, err := validateTitle(*title)
		if err != nil {
			return nil, err
		}
		current.Title = trimmed
	}
	if description != nil {
		if err := validateDescription(*description); err != nil {
			return nil, err
		}
		current.Description = *description
	}

	updated, err := s.todos.Update(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	if updated == nil {
		// 取得と更新の間に削除された場合
		return nil, model.NewTodoNotFoundError(todoID)
	}

	return updated, nil
}

// MarkComplete はTodoを完了状態にする。既に完了済みでもエラーにならない（冪等）。
func (s *Service) MarkComplete(ctx context.Context, userID, todoID int64) (*model.Todo, error) {
	todo, err := s.todos.MarkComplete(ctx, todoID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark todo complete: %w", err)
	}
	if todo == nil {
		return nil, model.NewTodoNotFoundError(todoID)
	}
	return todo, nil
}

// Delete はTodoを物理削除する。削除の有無をboolで返す。
func (s *Service) Delete(ctx context.Context, userID, todoID int64) (bool, error) {
	deleted, err := s.todos.DeleteByIDAndUserID(ctx, todoID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete todo: %w", err)
	}
	return deleted, nil
}
