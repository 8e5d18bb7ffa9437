package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/usersapi/internal/reqctx"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "bad_uuid", err: &pgconn.PgError{Code: "22P02"}, want: "invalid_text_representation"},
		{name: "other_pg", err: &pgconn.PgError{Code: "XX000"}, want: "pg_XX000"},
		{name: "not_null", err: &pgconn.PgError{Code: "23502"}, want: "not_null_violation"},
		{name: "timeout", err: context.DeadlineExceeded, want: "timeout"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "connection", err: errors.New("failed to connect to host"), want: "connection"},
		{name: "unknown", err: errors.New("boom"), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyDBErr(tt.err); got != tt.want {
				t.Fatalf("classifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestObserveDB_CountsErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.get", func() error { return nil })
	err := p.ObserveDB("users.get", func() error { return errors.New("boom") })

	if err == nil {
		t.Fatalf("ObserveDB should return the wrapped error")
	}

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.get", "unknown")); got != 1 {
		t.Fatalf("errors_total = %v, want 1", got)
	}
}

func TestObserveDB_NoRowsIsNotAnError(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("users.get", func() error { return pgx.ErrNoRows })
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("ObserveDB must pass the error through, got %v", err)
	}

	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 0 {
		t.Fatalf("errors_total series = %d, want 0", got)
	}
}

func TestGinHandleMiddleware_LabelsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/api/users/:id", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/abc", nil))

	if got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/api/users/:id", "200")); got != 1 {
		t.Fatalf("requests_total = %v, want 1", got)
	}
}

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "production")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}

	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id missing or wrong: %v", rec)
	}
	if rec["env"] != "production" {
		t.Fatalf("env attribute missing: %v", rec)
	}
}

func TestLogger_DebugOnlyInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "production").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record emitted outside development: %s", buf.String())
	}

	newLogger(&buf, "development").Debug("shown")
	if buf.Len() == 0 {
		t.Fatalf("debug record suppressed in development")
	}
}

func TestLogger_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "test")

	log.InfoContext(reqctx.WithRequestID(context.Background(), "req-1"), "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if rec["request_id"] != "req-1" {
		t.Fatalf("request_id missing: %v", rec)
	}
}
