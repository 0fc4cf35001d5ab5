package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDMiddleware_GeneratesIDWhenMissing(t *testing.T) {
	mw := NewRequestIDMiddleware()

	var gotID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if gotID == "" {
		t.Fatal("expected a generated request ID in context")
	}
	// 生成されたIDはUUID形式であること
	if _, err := uuid.Parse(gotID); err != nil {
		t.Errorf("generated request ID %q is not a valid UUID: %v", gotID, err)
	}
	// レスポンスヘッダーにも同じIDが設定されること
	if header := w.Result().Header.Get("X-Request-ID"); header != gotID {
		t.Errorf("X-Request-ID header = %q, want %q", header, gotID)
	}
}

func TestRequestIDMiddleware_InheritsClientProvidedID(t *testing.T) {
	mw := NewRequestIDMiddleware()

	var gotID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if gotID != "client-supplied-id" {
		t.Errorf("request ID in context = %q, want %q", gotID, "client-supplied-id")
	}
	if header := w.Result().Header.Get("X-Request-ID"); header != "client-supplied-id" {
		t.Errorf("X-Request-ID header = %q, want %q", header, "client-supplied-id")
	}
}

func TestRequestIDMiddleware_UniquePerRequest(t *testing.T) {
	mw := NewRequestIDMiddleware()

	seen := make(map[string]bool)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[RequestIDFromContext(r.Context())] = true
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	if len(seen) != 10 {
		t.Errorf("unique request IDs = %d, want 10", len(seen))
	}
}

func TestRequestIDFromContext_MissingValue_ReturnsEmpty(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty string", got)
	}
}
