package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campaign-backend/internal/services/health"
	"campaign-backend/internal/shared/config"
)

func testConfig() config.Config {
	return config.Config{
		Env:             "test",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		RateLimitRPS:    1,
		RateLimitBurst:  100,
	}
}

func TestHealthRoute(t *testing.T) {
	r := NewRouter(RouterDeps{Config: testConfig(), Health: health.NewService(t.TempDir())})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body health.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || !body.Services["templates"] {
		t.Fatalf("unexpected health %+v", body)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestMetricsRoute(t *testing.T) {
	r := NewRouter(RouterDeps{Config: testConfig()})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "renders_succeeded_total") {
		t.Fatalf("unexpected metrics response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAddr(t *testing.T) {
	for in, want := range map[string]string{"": ":3001", "8080": ":8080", ":9000": ":9000"} {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q): expected %s, got %s", in, want, got)
		}
	}
}
