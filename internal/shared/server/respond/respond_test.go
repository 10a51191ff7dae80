package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestErrorWritesFailureEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now = func() time.Time { return time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC) }
	defer func() { now = time.Now }()

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Error(c, http.StatusBadRequest, CodeValidation, "Message is required", errors.New("empty"))
	})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Message != "Message is required" || env.Error != "empty" || env.Code != CodeValidation {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.Timestamp != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected timestamp %s", env.Timestamp)
	}
}

func TestResultKeepsSuccessFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Result(c, http.StatusOK, false, []int{}, "Generated 0/2 images successfully")
	})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	var env map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env["success"] != false {
		t.Fatalf("expected success=false, got %v", env["success"])
	}
	if _, ok := env["timestamp"]; !ok {
		t.Fatalf("expected timestamp")
	}
}
