package routers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vansh1925/NexPrep-v2/internal/config"
	"github.com/vansh1925/NexPrep-v2/internal/handlers"
)

func TestHealthRoutes(t *testing.T) {
	router := chi.NewRouter()
	handler := handlers.NewHealthHandler(nil, nil, &config.Config{Provider: "gemini"}, nil)

	HealthRoutes(router, handler)

	for _, path := range []string{"/healthz", "/metrics"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s route not registered correctly, got status %d", path, rec.Code)
		}
	}
}

func newTestAPIHandlers() APIHandlers {
	logger := zap.NewNop()
	return APIHandlers{
		Users:      handlers.NewUserHandler(nil, 3, "billing", logger),
		Interviews: handlers.NewInterviewHandler(nil, nil, logger),
		Feedback:   handlers.NewFeedbackHandler(nil, nil, nil, logger),
		Sessions:   handlers.NewSessionHandler(nil, nil, nil, "secret", nil, logger),
	}
}

func TestAPIRoutesRegistersEndpoints(t *testing.T) {
	router := chi.NewRouter()
	noAuth := func(next http.Handler) http.Handler { return next }

	APIRoutes(router, newTestAPIHandlers(), noAuth)

	paths := map[string]bool{}
	if err := chi.Walk(router, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		paths[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("failed walking routes: %v", err)
	}

	expected := []string{
		"POST /api/v1/voice/webhook",
		"GET /api/v1/users/me/",
		"POST /api/v1/billing/credits",
		"GET /api/v1/interviews/",
		"POST /api/v1/interviews/",
		"GET /api/v1/interviews/{interview_id}/",
		"DELETE /api/v1/interviews/{interview_id}/",
		"GET /api/v1/interviews/{interview_id}/feedback",
		"POST /api/v1/interviews/{interview_id}/feedback",
		"POST /api/v1/ai/feedback",
		"GET /api/v1/sessions/{interview_id}/",
		"POST /api/v1/sessions/{interview_id}/start",
		"POST /api/v1/sessions/{interview_id}/transcript",
		"POST /api/v1/sessions/{interview_id}/end",
		"GET /api/v1/sessions/{interview_id}/stream",
	}

	for _, route := range expected {
		if !paths[route] {
			t.Errorf("expected route %s to be registered", route)
		}
	}
}

func TestAPIRoutesRequireAuth(t *testing.T) {
	router := chi.NewRouter()
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	APIRoutes(router, newTestAPIHandlers(), deny)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/interviews", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// the webhook is outside the auth group; an empty body is rejected by the handler itself
	req = httptest.NewRequest(http.MethodPost, "/api/v1/voice/webhook", nil)
	req.Header.Set("X-Vapi-Secret", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected webhook to reach its handler, got %d", rec.Code)
	}

	// crediting is only reachable with the billing secret, never with a user token
	req = httptest.NewRequest(http.MethodPost, "/api/v1/billing/credits", strings.NewReader(`{"email":"jane@example.com","credits":5}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without billing secret, got %d", rec.Code)
	}
}

func TestAPIRoutesHaveNoSelfServiceCredits(t *testing.T) {
	router := chi.NewRouter()
	noAuth := func(next http.Handler) http.Handler { return next }
	APIRoutes(router, newTestAPIHandlers(), noAuth)

	found := false
	_ = chi.Walk(router, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route == "/api/v1/users/me/credits" {
			found = true
		}
		return nil
	})
	if found {
		t.Fatal("users must not be able to credit themselves")
	}
}
