package middlewares

import (
	"log/slog"
	"time"

	"github.com/geocoder89/usersapi/internal/reqctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)

		if id == "" {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(requestIDHeader, id)

		ctx.Set(CtxRequestID, id)
		ctx.Request = ctx.Request.WithContext(reqctx.WithRequestID(ctx.Request.Context(), id))

		ctx.Next()
	}
}

func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path // unmatched
		}

		method := ctx.Request.Method

		ctx.Next()

		lat := time.Since(start)
		status := ctx.Writer.Status()

		attrs := []any{
			"method", method,
			"route", route,
			"status", status,
			"latency_ms", lat.Milliseconds(),
		}

		if len(ctx.Errors) > 0 {
			attrs = append(attrs, "err", ctx.Errors.Last().Err.Error())
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}

		// request_id is added by the trace handler from the request context
		log.Log(ctx.Request.Context(), level, "http_request", attrs...)
	}
}
