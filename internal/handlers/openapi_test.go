package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleOpenAPI(t *testing.T) {
	h := handleOpenAPI()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()

	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("content-type = %q, want application/json", got)
	}

	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.") {
		t.Errorf("openapi version = %q", doc.OpenAPI)
	}
	for path, method := range map[string]string{
		"/healthz":                  "get",
		"/api/auth/login":           "post",
		"/api/players/{id}":         "put",
		"/api/notifications/stream": "get",
		"/api/player-reports":       "post",
		"/api/staff/{id}":           "put",
		"/api/coach-notes/{id}":     "delete",
		"/api/reports/folders/{id}": "put",

		"/api/chat/rooms/{id}/participants/{userId}": "delete",
	} {
		if _, ok := doc.Paths[path][method]; !ok {
			t.Errorf("missing %s %s", method, path)
		}
	}
}

func TestSwaggerUI(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/docs/", "", nil)
	expect(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "/openapi.json") {
		t.Fatalf("body missing /openapi.json")
	}
}
