package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/middleware"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// rateLimiter may be nil to disable rate limiting.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
) error {
	if err := RegisterValidators(); err != nil {
		return err
	}

	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if rateLimiter != nil {
		r.Use(middleware.RateLimit(rateLimiter))
	}

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, cfg, services)
	return nil
}

// setupAPIV1Routes configures the /api/v1 group. Every ledger resource is scoped to a company.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))
	company := v1.Group("/companies/:company_id")

	registerAccountRoutes(company, services.Account)
	registerTransactionRoutes(company, services.Transaction, services.Posting)
	registerApprovalRoutes(company, services.Approval, services.Posting)
	registerAuditRoutes(company, services.Audit)
	registerThresholdRoutes(company, services.Threshold)
}
