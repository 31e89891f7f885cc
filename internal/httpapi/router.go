// Package httpapi exposes the problem and annotation services as a JSON
// REST API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/abhisek/stepwise/internal/annotation"
	"github.com/abhisek/stepwise/internal/logger"
	"github.com/abhisek/stepwise/internal/metrics"
	"github.com/abhisek/stepwise/internal/problem"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Problems    *problem.Service
	Annotations *annotation.Service
	Store       Pinger
	Log         *logger.Logger

	CORSOrigins []string
	Version     string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(CORS(cfg.CORSOrigins))
	r.Use(Metrics())
	r.Use(RequestLogger(log))

	r.GET("/", func(c *gin.Context) {
		respondOK(c, http.StatusOK, gin.H{
			"message": "Math Annotation Tool API",
			"version": cfg.Version,
		})
	})
	r.GET("/healthz", health(cfg.Store))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/taxonomy", Taxonomy)

	if cfg.Problems != nil {
		ph := NewProblemHandler(cfg.Problems, log)
		api.GET("/problems", ph.List)
		api.POST("/problems", ph.Create)
		api.GET("/problems/random", ph.Random)
		api.POST("/problems/discard", ph.DiscardByBody)
		api.GET("/problems/:id", ph.Get)
		api.PUT("/problems/:id", ph.Update)
		api.PUT("/problems/:id/discard", ph.Discard)
	}

	if cfg.Annotations != nil {
		ah := NewAnnotationHandler(cfg.Annotations, log)
		api.GET("/annotations", ah.List)
		api.POST("/annotations/start", ah.Start)
		api.POST("/annotations/discard", ah.Discard)
		api.GET("/annotations/:id", ah.Get)
		api.POST("/annotations/:id/guidance", ah.SubmitGuidance)
		api.POST("/annotations/:id/mark-correct", ah.Finalize)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Envelope{Error: "Route not found"})
	})
	return r
}

func health(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.String(http.StatusOK, "ok")
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.String(http.StatusServiceUnavailable, "store unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	}
}
