package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type httpObservation struct {
	method string
	route  string
	status int
}

type recordingHTTPMetrics struct {
	mu  sync.Mutex
	obs []httpObservation
}

func (r *recordingHTTPMetrics) RecordHTTPRequest(method, route string, statusCode int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, httpObservation{method: method, route: route, status: statusCode})
}

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	recorder := &recordingHTTPMetrics{}
	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(recorder))
	r.Get("/api/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/abc123", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if len(recorder.obs) != 1 {
		t.Fatalf("observations = %d, want 1", len(recorder.obs))
	}
	got := recorder.obs[0]
	if got.route != "/api/contacts/{id}" {
		t.Errorf("route = %q, want %q", got.route, "/api/contacts/{id}")
	}
	if got.method != http.MethodGet {
		t.Errorf("method = %q, want %q", got.method, http.MethodGet)
	}
	if got.status != http.StatusNotFound {
		t.Errorf("status = %d, want %d", got.status, http.StatusNotFound)
	}
}

func TestMetricsMiddleware_WithoutRouter_RecordsEmptyRoute(t *testing.T) {
	recorder := &recordingHTTPMetrics{}
	handler := NewMetricsMiddleware(recorder)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/anything", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(recorder.obs) != 1 {
		t.Fatalf("observations = %d, want 1", len(recorder.obs))
	}
	if recorder.obs[0].route != "" {
		t.Errorf("route = %q, want empty", recorder.obs[0].route)
	}
	if recorder.obs[0].status != http.StatusOK {
		t.Errorf("status = %d, want %d", recorder.obs[0].status, http.StatusOK)
	}
}
