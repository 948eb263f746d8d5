package app

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ridebook/internal/auth"
	"ridebook/internal/handler"
	"ridebook/internal/metrics"
	"ridebook/internal/middleware"
	"ridebook/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler      *handler.UserHandler
	RideHandler      *handler.RideHandler
	OperatorHandler  *handler.OperatorHandler
	Verifier         auth.TokenVerifier
	OperatorKey      string
	IdempotencyStore redis.IdempotencyStoreInterface // nil disables replay
	Metrics          *metrics.Recorder
	MetricsGatherer  prometheus.Gatherer // nil hides /metrics
	AllowedOrigins   []string
	NewRelicApp      *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
//
// Gin does not allow /user/:phone and /user/:userUid/allRides to use
// different parameter names, so both read the segment as :id.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Metrics))
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.MetricsGatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	// Customer routes.
	customer := router.Group("")
	customer.Use(middleware.Authenticate(deps.Verifier))
	customer.Use(middleware.Idempotency(deps.IdempotencyStore))
	{
		customer.POST("/user", deps.UserHandler.CreateUser)
		customer.GET("/user/:id", deps.UserHandler.GetUser)
		customer.PUT("/user/:id/name", deps.UserHandler.UpdateName)
		customer.GET("/user/:id/allRides", deps.RideHandler.ListRides)

		customer.POST("/createRideRequest", deps.RideHandler.SubmitRideRequest)
		customer.GET("/rides/:id", deps.RideHandler.GetRide)
		customer.POST("/rides/:id/cancel", deps.RideHandler.CancelRide)
	}

	// Operator routes.
	operator := router.Group("/operator")
	operator.Use(middleware.OperatorKey(deps.OperatorKey))
	operator.Use(middleware.Idempotency(deps.IdempotencyStore))
	{
		operator.PATCH("/rides/:id/status", deps.OperatorHandler.SetStatus)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Operator-Key", "X-Request-ID"}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions}
	return cfg
}
