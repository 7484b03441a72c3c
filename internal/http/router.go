package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/tayyabfareed009/newswatch/internal/config"
	"github.com/tayyabfareed009/newswatch/internal/gateway"
	"github.com/tayyabfareed009/newswatch/internal/http/handler"
	httpmiddleware "github.com/tayyabfareed009/newswatch/internal/http/middleware"
	"github.com/tayyabfareed009/newswatch/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, logger *zap.Logger, authHandler *handler.AuthHandler, authMiddleware *httpmiddleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(logger))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/auth")
	{
		api.POST("/resend-otp", authHandler.ResendOTP)
		api.POST("/verify-otp", authHandler.VerifyOTP)
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.POST("/forgot-password", authHandler.ForgotPassword)
		api.POST("/reset-password", authHandler.ResetPassword)
		api.GET("/me", authMiddleware.ValidateJWT, authHandler.Me)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gateway.Envelope{Error: "not_found", Message: "Route not found."})
	})

	return r
}
