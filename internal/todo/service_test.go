package todo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/irfanmanzoor12/Toda-App/internal/model"
	"github.com/irfanmanzoor12/Toda-App/internal/repository"
)

func newTestService() *Service {
	return NewService(repository.NewMemoryTodoRepo())
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected TODO_NOT_FOUND, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTodoNotFound {
		t.Fatalf("error = %v, want code %s", err, model.ErrCodeTodoNotFound)
	}
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected VALIDATION_ERROR, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Fatalf("error = %v, want code %s", err, model.ErrCodeValidation)
	}
}

// Createがタイトルをトリムしpending状態で保存することを検証
func TestService_Create(t *testing.T) {
	svc := newTestService()

	todo, err := svc.Create(context.Background(), 1, "  Buy milk  ", "2 liters")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if todo.Title != "Buy milk" {
		t.Errorf("Title = %q, want trimmed %q", todo.Title, "Buy milk")
	}
	if todo.Description != "2 liters" {
		t.Errorf("Description = %q, want %q", todo.Description, "2 liters")
	}
	if todo.Status != model.TodoStatusPending {
		t.Errorf("Status = %q, want %q", todo.Status, model.TodoStatusPending)
	}
	if todo.UserID != 1 {
		t.Errorf("UserID = %d, want 1", todo.UserID)
	}
	if todo.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

// Createの入力検証を検証
func TestService_Create_ValidationErrors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name        string
		title       string
		description string
	}{
		{"empty title", "", ""},
		{"whitespace title", "   ", ""},
		{"title too long", strings.Repeat("あ", 501), ""},
		{"description too long", "valid", strings.Repeat("a", 2001)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, tc.title, tc.description)
			assertValidation(t, err)
		})
	}
}

// 境界値（タイトル500文字・説明2000文字）が受理されることを検証
func TestService_Create_BoundaryLengths(t *testing.T) {
	svc := newTestService()

	todo, err := svc.Create(context.Background(), 1, strings.Repeat("あ", 500), strings.Repeat("a", 2000))
	if err != nil {
		t.Fatalf("Create at boundary lengths returned error: %v", err)
	}
	if len([]rune(todo.Title)) != 500 {
		t.Errorf("title length = %d, want 500", len([]rune(todo.Title)))
	}
}

// Listが所有者のTodoのみを作成順で返すことを検証
func TestService_List(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	svc.Create(ctx, 1, "first", "")
	svc.Create(ctx, 2, "other user", "")
	svc.Create(ctx, 1, "second", "")

	todos, err := svc.List(ctx, 1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(todos) != 2 {
		t.Fatalf("len(todos) = %d, want 2", len(todos))
	}
	if todos[0].Title != "first" || todos[1].Title != "second" {
		t.Errorf("todos out of creation order: %q, %q", todos[0].Title, todos[1].Title)
	}
}

// Todoが1件もないユーザーには空スライスが返る（エラーではない）ことを検証
func TestService_List_Empty(t *testing.T) {
	svc := newTestService()

	todos, err := svc.List(context.Background(), 42)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("len(todos) = %d, want 0", len(todos))
	}
}

// 所有者分離: 他ユーザーからの全操作がNotFound相当になることを検証
func TestService_OwnershipIsolation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, "owned by A", "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// ユーザーBからのget/update/markComplete はNotFound
	_, err = svc.Get(ctx, 2, created.ID)
	assertNotFound(t, err)

	newTitle := "hijacked"
	_, err = svc.Update(ctx, 2, created.ID, &newTitle, nil)
	assertNotFound(t, err)

	_, err = svc.MarkComplete(ctx, 2, created.ID)
	assertNotFound(t, err)

	// deleteはfalse（エラーではない）
	deleted, err := svc.Delete(ctx, 2, created.ID)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deleted {
		t.Error("delete by another user should report false")
	}

	// 所有者Aの操作は成功する
	got, err := svc.Get(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("owner Get returned error: %v", err)
	}
	if got.Title != "owned by A" {
		t.Errorf("Title = %q, want %q", got.Title, "owned by A")
	}
}

// 存在しないIDへのアクセスと他ユーザー所有のアクセスが同一のエラーであることを検証
func TestService_Get_AbsentAndForeignIndistinguishable(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, 1, "task", "")

	_, absentErr := svc.Get(ctx, 1, 9999)
	_, foreignErr := svc.Get(ctx, 2, created.ID)

	var absent, foreign *model.APIError
	if !errors.As(absentErr, &absent) || !errors.As(foreignErr, &foreign) {
		t.Fatal("both errors should be APIError")
	}
	if absent.Code != foreign.Code || absent.Category != foreign.Category {
		t.Errorf("errors differ: %+v vs %+v", absent, foreign)
	}
}

// Updateの部分更新（nilフィールドは変更しない）を検証
func TestService_Update_Partial(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, 1, "original", "original description")

	// タイトルのみ更新
	newTitle := "  updated  "
	updated, err := svc.Update(ctx, 1, created.ID, &newTitle, nil)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != "updated" {
		t.Errorf("Title = %q, want trimmed %q", updated.Title, "updated")
	}
	if updated.Description != "original description" {
		t.Errorf("Description = %q, should be unchanged", updated.Description)
	}

	// 説明のみ更新
	newDesc := "new description"
	updated, err = svc.Update(ctx, 1, created.ID, nil, &newDesc)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != "updated" {
		t.Errorf("Title = %q, should be unchanged", updated.Title)
	}
	if updated.Description != "new description" {
		t.Errorf("Description = %q, want %q", updated.Description, "new description")
	}
}

// Updateで指定したフィールドはCreateと同じ検証を受けることを検証
func TestService_Update_ValidatesFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, 1, "task", "")

	empty := "   "
	_, err := svc.Update(ctx, 1, created.ID, &empty, nil)
	assertValidation(t, err)

	tooLong := strings.Repeat("a", 2001)
	_, err = svc.Update(ctx, 1, created.ID, nil, &tooLong)
	assertValidation(t, err)
}

// MarkCompleteの冪等性を検証（2回目も成功しcompleteのまま）
func TestService_MarkComplete_Idempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, 1, "task", "")

	first, err := svc.MarkComplete(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("first MarkComplete returned error: %v", err)
	}
	if first.Status != model.TodoStatusComplete {
		t.Errorf("Status = %q, want %q", first.Status, model.TodoStatusComplete)
	}

	second, err := svc.MarkComplete(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("second MarkComplete returned error: %v", err)
	}
	if second.Status != model.TodoStatusComplete {
		t.Errorf("Status = %q, want %q", second.Status, model.TodoStatusComplete)
	}
}

// Deleteが成否をboolで返し、削除後はGetがNotFoundになることを検証
func TestService_Delete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, 1, "task", "")

	deleted, err := svc.Delete(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !deleted {
		t.Error("expected deleted = true")
	}

	_, err = svc.Get(ctx, 1, created.ID)
	assertNotFound(t, err)

	// 2回目の削除はfalse（エラーではない）
	again, err := svc.Delete(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("second Delete returned error: %v", err)
	}
	if again {
		t.Error("second delete should report false")
	}
}
