package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stemsi/idcard-backend/internal/config"
	"github.com/stemsi/idcard-backend/internal/handler"
	"github.com/stemsi/idcard-backend/internal/metrics"
	"github.com/stemsi/idcard-backend/internal/middleware"
	"github.com/stemsi/idcard-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Student *handler.StudentHandler
	Feed    *handler.FeedHandler // nil when Redis is disabled
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	sessions middleware.SessionVerifier,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(metrics.Middleware())
	router.Use(middleware.Brotli())
	router.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAdmin := middleware.RequireAdminSession(sessions)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/initialize", handlers.Auth.Initialize)
		auth.POST("/signup", handlers.Auth.Signup)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/change-password", handlers.Auth.ChangePassword)
		auth.POST("/forgot-password", handlers.Auth.ForgotPassword)
		auth.POST("/reset-password", handlers.Auth.ResetPassword)
		auth.POST("/verify-session", handlers.Auth.VerifySession)
		auth.GET("/admin/:username", requireAdmin, handlers.Auth.GetAdmin)
	}

	// ─── 2. Student Group ──────────────────────────────────────────────
	students := router.Group("/api/v1/students")
	{
		students.POST("", handlers.Student.CreateStudent)
		students.POST("/check-duplicate", handlers.Student.CheckDuplicate)
		students.GET("", requireAdmin, handlers.Student.ListStudents)
		students.PATCH("/:id/status", requireAdmin, handlers.Student.UpdateStatus)
	}

	// ─── 3. WebSocket Group (admin session via ?token=) ────────────────
	if handlers.Feed != nil {
		ws := router.Group("/ws/v1")
		ws.Use(requireAdmin)
		{
			ws.GET("/admin/submissions", handlers.Feed.Submissions)
		}
	}

	return router
}
