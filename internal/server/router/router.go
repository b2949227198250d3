package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/access"
	"github.com/mamadbah2/bakery/internal/server/handlers"
	"github.com/mamadbah2/bakery/internal/server/middleware"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Webhook     *handlers.WebhookHandler
	Records     *handlers.RecordsHandler
	Shift       *handlers.ShiftHandler
	Invitations *handlers.InvitationHandler
}

// Options configures the router.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Checker        access.Checker
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/webhook", h.Webhook.Verify)
	r.POST("/webhook", h.Webhook.Receive)

	can := func(capability access.Capability) gin.HandlerFunc {
		return middleware.Require(opts.Checker, capability)
	}

	api := r.Group("/api/v1", middleware.Auth(opts.JWTSecret))
	{
		api.GET("/shift", h.Shift.CurrentShift)
		api.GET("/products", h.Records.Products)
		api.POST("/production", can(access.LogProduction), h.Records.CreateProduction)
		api.POST("/sales", can(access.LogSales), h.Records.CreateSale)
		api.GET("/inventory", can(access.ViewInventory), h.Shift.Inventory)

		reports := api.Group("/reports", can(access.ViewReports))
		reports.GET("/shift", h.Shift.ShiftReport)
		reports.GET("/shift/export", h.Shift.ExportShiftReport)
		reports.GET("/history", h.Shift.History)

		api.POST("/invitations", can(access.ManageUsers), h.Invitations.Create)
		api.POST("/invitations/accept", h.Invitations.Accept)

		api.POST("/notifications/subscribe", h.Webhook.Subscribe)
		api.POST("/notifications/send", can(access.SendMessages), h.Webhook.SendMessage)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
