package api

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/opsdesk/opsdesk/internal/api/handler"
	"github.com/opsdesk/opsdesk/internal/api/middleware"
	"github.com/opsdesk/opsdesk/internal/core/domain"
	"github.com/opsdesk/opsdesk/internal/core/service"
	mongostore "github.com/opsdesk/opsdesk/internal/infrastructure/db/mongo"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Dependencies ---
	userRepo := mongostore.NewUserRepository(db)
	accounts := service.NewAccountService(userRepo, jwtSecret, tokenTTL)
	authHandler := handler.NewAuthHandler(accounts)
	authMiddleware := middleware.Auth(jwtSecret)

	// --- Auth routes (client contract) ---
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, authMiddleware)
	e.POST("/auth/reset-password", authHandler.ResetPassword, authMiddleware)

	// --- Admin onboarding ---
	e.POST("/auth/users", authHandler.CreateUser, authMiddleware,
		middleware.RBAC(domain.RoleSuperadmin, domain.RoleAdmin))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
