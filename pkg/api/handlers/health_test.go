package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	h := NewHealthHandler(newTestService(t), "cognio", "test")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestReady(t *testing.T) {
	// newTestService calls Start, which rebuilds the lexical index
	h := NewHealthHandler(newTestService(t), "cognio", "test")

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	h.Ready(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body["ready"] {
		t.Error("expected ready=true after Start")
	}
}

func TestInfo(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Save(context.Background(), "info note", "", nil); err != nil {
		t.Fatal(err)
	}

	h := NewHealthHandler(svc, "cognio", "1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.Info(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["name"] != "cognio" || body["version"] != "1.2.3" {
		t.Errorf("unexpected info %v", body)
	}
	if total, ok := body["total_memories"].(float64); !ok || total != 1 {
		t.Errorf("total_memories = %v, want 1", body["total_memories"])
	}
}
