package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/repository"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func setupHealthRouter(p Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHealthHandler(p, "sqlite", time.Now(), "test").RegisterRoutes(r)
	return r
}

func TestHealth(t *testing.T) {
	router := setupHealthRouter(fakePinger{})

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestReady_WithSQLite(t *testing.T) {
	db := setupTestDB(t)
	router := setupHealthRouter(repository.NewGormBookRepository(db))

	req, _ := http.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestReady_StoreDown(t *testing.T) {
	router := setupHealthRouter(fakePinger{err: errors.New("dial tcp: connection refused")})

	req, _ := http.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}

	var body struct {
		Status string `json:"status"`
		DB     struct {
			Status string `json:"status"`
		} `json:"db"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if body.Status != "unhealthy" || body.DB.Status != "down" {
		t.Errorf("unexpected body: %+v", body)
	}
}
