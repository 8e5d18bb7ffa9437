package app_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/usersapi/internal/app"
	"github.com/geocoder89/usersapi/internal/config"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewWithMemoryStoreAndCache(t *testing.T) {
	vars := map[string]string{
		"APP_ENV":      config.EnvTest,
		"STORE_DRIVER": config.StoreMemory,
		"CACHE_DRIVER": config.CacheMemory,
	}
	cfg, err := config.FromLookup(func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	a, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	defer a.Close()

	// no store to supervise; must return immediately
	a.Supervise(context.Background())

	req := httptest.NewRequest(http.MethodPost, cfg.BasePath, bytes.NewBufferString(`{"name":"doe","email":"doe@x.com","country":"sweden"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz = %d body=%s", w.Code, w.Body.String())
	}
}
