package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "pointake/docs"
	"pointake/internal/domain"
	"pointake/internal/handler"
	"pointake/internal/middleware"
	"pointake/internal/service"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Customer *handler.CustomerHandler
	Batch    *handler.BatchHandler
	Result   *handler.ResultHandler
	Health   *handler.HealthHandler
}

// maxMultipartMemory bounds how much of a batch upload gin buffers in memory.
const maxMultipartMemory = 64 << 20

// Setup configures the Gin engine with all routes and middleware.
func Setup(authSvc service.AuthService, h Handlers, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Public routes
	v1.POST("/auth/login", h.Auth.Login)
	// External systems read saved results with ?wms_session_token=.
	v1.GET("/results", h.Result.Get)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	protected.GET("/auth/me", h.Auth.Me)

	customers := protected.Group("/customers")
	customers.GET("/search", h.Customer.Search)
	customers.GET("/:id", h.Customer.GetByID)
	customers.POST("", middleware.RequireRole(domain.RoleAdmin), h.Customer.Create)
	customers.PUT("/:id", middleware.RequireRole(domain.RoleAdmin), h.Customer.Update)
	customers.DELETE("/:id", middleware.RequireRole(domain.RoleAdmin), h.Customer.Delete)

	batches := protected.Group("/batches")
	batches.POST("", h.Batch.Start)
	batches.GET("/:id", h.Batch.Get)
	batches.GET("/:id/export", h.Batch.Export)

	results := protected.Group("/results")
	results.POST("", h.Result.Save)
	results.DELETE("", h.Result.Clear)
	results.GET("/export", h.Result.Export)

	return r
}
