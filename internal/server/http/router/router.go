package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/polkiloo/pathway/internal/metrics"
	"github.com/polkiloo/pathway/internal/server/http/handlers"
	"github.com/polkiloo/pathway/internal/server/http/middleware"
)

// Params groups router dependencies.
type Params struct {
	fx.In

	Facade   handlers.AuthFacade
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.HTTPMetrics
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(p.Logger))
	engine.Use(middleware.Metrics(p.Metrics))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(p.Facade, p.Logger)

	engine.GET("/", handlers.Root)
	engine.GET("/metrics", gin.WrapH(metrics.Handler(p.Registry)))

	auth := engine.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	return engine
}
