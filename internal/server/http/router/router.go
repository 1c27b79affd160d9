package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pkgAuth "github.com/polkiloo/pointsledger/internal/pkg/auth"
	"github.com/polkiloo/pointsledger/internal/server/http/handlers"
	"github.com/polkiloo/pointsledger/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.OpsFacade, verifier pkgAuth.TokenVerifier, gatherer prometheus.Gatherer, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	ops := handlers.NewOpsHandler(facade)

	engine.GET("/healthz", ops.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := engine.Group("/api/ops")
	api.Use(middleware.OperatorRequired(verifier))
	api.GET("/interventions", ops.Interventions)
	api.GET("/sagas/:type/:id", ops.Saga)
	api.GET("/halts", ops.Halts)
	api.POST("/halts/:subscriber/:aggregate/resume", ops.ResumeHalt)
	api.GET("/loyalty-banks/:id", ops.LoyaltyBank)

	return engine
}
