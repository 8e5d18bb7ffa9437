package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/usersapi/internal/http/handlers"
)

func TestReadyz(t *testing.T) {
	tests := []struct {
		name           string
		checks         map[string]handlers.CheckFunc
		wantStatusCode int
	}{
		{
			name:           "no_checks",
			wantStatusCode: http.StatusOK,
		},
		{
			name: "all_ok",
			checks: map[string]handlers.CheckFunc{
				"store": func(ctx context.Context) error { return nil },
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "store_down",
			checks: map[string]handlers.CheckFunc{
				"store": func(ctx context.Context) error { return errors.New("connection refused") },
				"cache": func(ctx context.Context) error { return nil },
			},
			wantStatusCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.checks)
			r := setupRouter(http.MethodGet, "/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
