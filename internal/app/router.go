package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"delivery/internal/handler"
	"delivery/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	OrderHandler   *handler.OrderHandler
	ProductHandler *handler.ProductHandler
	ExpenseHandler *handler.ExpenseHandler
	UserHandler    *handler.UserHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	Logger         *log.Logger
	JWTSecret      string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(middleware.IdentityAuth(deps.JWTSecret))
	{
		v1.GET("/me", deps.UserHandler.Me)

		// User routes.
		users := v1.Group("/users")
		{
			users.GET("", deps.UserHandler.GetAll)
			users.POST("", deps.UserHandler.Create)
		}

		// Order routes.
		orders := v1.Group("/orders")
		{
			orders.GET("", deps.OrderHandler.List)
			orders.POST("", deps.OrderHandler.Create)
			orders.GET("/history", deps.OrderHandler.History)
			orders.POST("/confirm-payment", deps.OrderHandler.ConfirmPayment)
			orders.GET("/:id", deps.OrderHandler.Get)
			orders.PUT("/:id/status", deps.OrderHandler.UpdateStatus)
			orders.GET("/:id/receipt", deps.OrderHandler.Receipt)
		}

		// Catalog routes.
		v1.GET("/products", deps.ProductHandler.List)

		// Expense routes.
		v1.POST("/expenses", deps.ExpenseHandler.Submit)
		v1.GET("/drivers/:id/expenses", deps.ExpenseHandler.ListByDriver)
	}

	return router
}
