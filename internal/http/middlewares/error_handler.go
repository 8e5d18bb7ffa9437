package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/geocoder89/usersapi/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// ErrorHandler is the terminal error boundary. It renders the last error a
// handler attached with ctx.Error, unless a response was already written.
func ErrorHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		if len(ctx.Errors) == 0 || ctx.Writer.Written() {
			return
		}

		err := ctx.Errors.Last().Err

		slog.Default().ErrorContext(ctx.Request.Context(), "request failed", "err", err)

		handlers.RespondFromError(ctx, err)
	}
}

// Recovery turns a panic into a 500 rendered through the same envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		slog.Default().ErrorContext(ctx.Request.Context(), "panic recovered", "panic", fmt.Sprint(recovered))

		handlers.RespondError(ctx, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
		ctx.Abort()
	})
}

func NotFound() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Not Found")
	}
}
