package ginserver

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"campbook/internal/infra/config"
	"campbook/internal/infra/obs"
)

type CampsiteHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Availability(c *gin.Context)
	Quote(c *gin.Context)
	Calendar(c *gin.Context)
	Block(c *gin.Context)
	Unblock(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	RefundPreview(c *gin.Context)
	Confirm(c *gin.Context)
	CheckIn(c *gin.Context)
	CheckOut(c *gin.Context)
	Complete(c *gin.Context)
	NoShow(c *gin.Context)
	Cancel(c *gin.Context)
}

type Handlers struct {
	Campsites CampsiteHTTP
	Bookings  BookingHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Campsites != nil {
		sites := api.Group("/campsites")
		sites.GET("", h.Campsites.List)
		sites.GET("/:id", h.Campsites.Get)
		sites.POST("/:id/availability", h.Campsites.Availability)
		sites.POST("/:id/quote", h.Campsites.Quote)
		sites.GET("/:id/calendar", h.Campsites.Calendar)
		sites.POST("/:id/blocks", h.Campsites.Block)
		sites.DELETE("/:id/blocks/:blockId", h.Campsites.Unblock)
	}
	if h.Bookings != nil {
		bookings := api.Group("/bookings")
		bookings.POST("", h.Bookings.Create)
		bookings.GET("/:id", h.Bookings.Get)
		bookings.GET("/:id/refund-preview", h.Bookings.RefundPreview)
		bookings.POST("/:id/confirm", h.Bookings.Confirm)
		bookings.POST("/:id/check-in", h.Bookings.CheckIn)
		bookings.POST("/:id/check-out", h.Bookings.CheckOut)
		bookings.POST("/:id/complete", h.Bookings.Complete)
		bookings.POST("/:id/no-show", h.Bookings.NoShow)
		bookings.POST("/:id/cancel", h.Bookings.Cancel)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	conf := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", IdempotencyKeyHeader, obs.RequestIDHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		conf.AllowOrigins = nil
		conf.AllowAllOrigins = true
	}
	return conf
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test", "testing":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	return gin.Mode()
}
