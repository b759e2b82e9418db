package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Middleware("test"))
	router.Get("/interviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router.Handle("/metrics", Handler())

	before := testutil.ToFloat64(httpRequests.WithLabelValues("test", http.MethodGet, "/interviews/{id}", "418"))

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/interviews/"+id, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues("test", http.MethodGet, "/interviews/{id}", "418"))
	if after-before != 2 {
		t.Fatalf("expected two requests recorded under the route pattern, got %v", after-before)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "nexprep_http_requests_total") {
		t.Fatalf("expected metrics output to include request counter")
	}
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(QuestionParseTier.WithLabelValues("bracketed"))
	QuestionParseTier.WithLabelValues("bracketed").Inc()
	if got := testutil.ToFloat64(QuestionParseTier.WithLabelValues("bracketed")); got != before+1 {
		t.Fatalf("expected counter to increase, got %v", got)
	}
}
