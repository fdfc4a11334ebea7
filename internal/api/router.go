package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"github.com/baseplate/backoffice/config"
	"github.com/baseplate/backoffice/internal/api/handlers"
	"github.com/baseplate/backoffice/internal/api/middleware"
)

type Router struct {
	engine        *gin.Engine
	cors          config.CORSConfig
	moduleHandler *handlers.ModuleHandler
}

func NewRouter(moduleHandler *handlers.ModuleHandler, corsCfg config.CORSConfig) *Router {
	return &Router{
		cors:          corsCfg,
		moduleHandler: moduleHandler,
	}
}

func (r *Router) Setup(mode string) *gin.Engine {
	gin.SetMode(mode)
	r.engine = gin.New()
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger())
	if len(r.cors.AllowedOrigins) > 0 {
		r.engine.Use(cors.New(cors.Config{
			AllowOrigins:     r.cors.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
			ExposeHeaders:    []string{middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.setupRoutes()
	return r.engine
}

// Handler is the set-up engine with gzip response compression in front.
func (r *Router) Handler(mode string) http.Handler {
	return gzhttp.GzipHandler(r.Setup(mode))
}

func (r *Router) setupRoutes() {
	api := r.engine.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api.GET("/stats", r.moduleHandler.AllStats)
	api.GET("/modules", r.moduleHandler.ListModules)

	module := api.Group("/modules/:module")
	{
		module.GET("", r.moduleHandler.GetModule)
		module.POST("/query", r.moduleHandler.Query)
		module.GET("/suggestions", r.moduleHandler.Suggestions)
		module.GET("/stats", r.moduleHandler.Stats)
		module.GET("/groups/:field", r.moduleHandler.Groups)

		// Records
		module.GET("/records", r.moduleHandler.ListRecords)
		module.POST("/records", r.moduleHandler.CreateRecord)
		module.GET("/records/:id", r.moduleHandler.GetRecord)
		module.PUT("/records/:id", r.moduleHandler.UpdateRecord)
		module.DELETE("/records/:id", r.moduleHandler.DeleteRecord)
	}
}
