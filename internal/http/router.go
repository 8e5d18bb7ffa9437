package http

import (
	"log/slog"
	"strings"

	"github.com/geocoder89/usersapi/internal/config"
	"github.com/geocoder89/usersapi/internal/http/handlers"
	"github.com/geocoder89/usersapi/internal/http/middlewares"
	"github.com/geocoder89/usersapi/internal/notifications"
	"github.com/geocoder89/usersapi/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Users    handlers.UsersRepository
	Notifier notifications.Notifier
	Checks   map[string]handlers.CheckFunc

	// optional; metrics are not exposed when nil
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != config.EnvDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// "/api/users/" is served, not redirected
	r.RedirectTrailingSlash = false

	// middleware, outermost first; ErrorHandler sits closest to the handlers
	r.Use(middlewares.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.ErrorHandler())

	// health
	h := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	usersHandler := handlers.NewUsersHandlerWithNotifier(deps.Users, deps.Notifier)

	roots := []string{""}
	if !strings.HasSuffix(cfg.BasePath, "/") {
		roots = append(roots, "/")
	}

	users := r.Group(cfg.BasePath)
	for _, root := range roots {
		users.GET(root, usersHandler.ListUsers)
		users.POST(root, usersHandler.CreateUser)
	}
	users.GET("/:id", usersHandler.GetUserByID)
	users.PUT("/:id", usersHandler.UpdateUser)
	users.DELETE("/:id", usersHandler.DeleteUser)

	r.NoRoute(middlewares.NotFound())

	return r
}
