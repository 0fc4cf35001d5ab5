package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/irfanmanzoor12/Toda-App/internal/metrics"
	"github.com/irfanmanzoor12/Toda-App/internal/middleware"
	"github.com/irfanmanzoor12/Toda-App/internal/model"
)

// TodoServiceInterface はTodoハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	// Create は所有者のTodoを新規作成する。
	Create(ctx context.Context, userID int64, title, description string) (*model.Todo, error)
	// List は所有者のTodo一覧を作成順で返す。
	List(ctx context.Context, userID int64) ([]*model.Todo, error)
	// Get は所有者のTodoを1件取得する。
	Get(ctx context.Context, userID, todoID int64) (*model.Todo, error)
	// Update はタイトル・説明を部分更新する。nilのフィールドは変更しない。
	Update(ctx context.Context, userID, todoID int64, title, description *string) (*model.Todo, error)
	// MarkComplete はTodoを完了状態にする。
	MarkComplete(ctx context.Context, userID, todoID int64) (*model.Todo, error)
	// Delete はTodoを物理削除する。削除の有無をboolで返す。
	Delete(ctx context.Context, userID, todoID int64) (bool, error)
}

// TodoHandler はTodo管理のHTTPハンドラー。
type TodoHandler struct {
	service TodoServiceInterface
	metrics metrics.MetricsCollector
}

// NewTodoHandler はTodoHandlerを生成する。collectorはnil可（メトリクス無効）。
func NewTodoHandler(service TodoServiceInterface, collector metrics.MetricsCollector) *TodoHandler {
	return &TodoHandler{
		service: service,
		metrics: collector,
	}
}

// createTodoRequest はTodo作成リクエストのボディ。
type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// updateTodoRequest はTodo更新リクエストのボディ。
// 省略されたフィールドは変更されない。
type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// todoResponse はTodo情報のAPIレスポンス。
type todoResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateTodo はTodo作成を処理する。
// POST /api/todos
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	todo, err := h.service.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordTodoCreated()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTodoResponse(todo))
}

// ListTodos は認証済みユーザーのTodo一覧を返す。
// GET /api/todos
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	todos, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 0件でも空配列を返す（nullにしない）
	res := make([]todoResponse, 0, len(todos))
	for _, todo := range todos {
		res = append(res, toTodoResponse(todo))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// GetTodo はTodo詳細を取得する。
// GET /api/todos/{id}
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseTodoID(w, r)
	if !ok {
		return
	}

	todo, err := h.service.Get(r.Context(), userID, todoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTodoResponse(todo))
}

// UpdateTodo はタイトル・説明を部分更新する。
// PUT /api/todos/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseTodoID(w, r)
	if !ok {
		return
	}

	var req updateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	todo, err := h.service.Update(r.Context(), userID, todoID, req.Title, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTodoResponse(todo))
}

// CompleteTodo はTodoを完了状態にする。冪等な操作。
// PATCH /api/todos/{id}/complete
func (h *TodoHandler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseTodoID(w, r)
	if !ok {
		return
	}

	todo, err := h.service.MarkComplete(r.Context(), userID, todoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordTodoCompleted()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTodoResponse(todo))
}

// DeleteTodo はTodoを削除する。
// DELETE /api/todos/{id}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	todoID, ok := parseTodoID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), userID, todoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !deleted {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTodoNotFoundError(todoID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// requireUserID はコンテキストから検証済みユーザーIDを取り出す。
// 取れない場合は401を書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewTokenInvalidError())
		return 0, false
	}
	return userID, true
}

// parseTodoID はURLパラメータからTodo IDを取り出す。
// 数値でない場合は404を書き込みfalseを返す（存在しないリソース扱い）。
func parseTodoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	todoID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || todoID <= 0 {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewTodoNotFoundError(0))
		return 0, false
	}
	return todoID, true
}

// toTodoResponse はmodel.TodoからAPIレスポンスに変換する。
func toTodoResponse(todo *model.Todo) todoResponse {
	return todoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Status:      string(todo.Status),
		OwnerID:     todo.UserID,
		CreatedAt:   todo.CreatedAt,
	}
}
