// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"gateway/internal/delivery/api/middleware"
	"gateway/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler         *handler.AuthHandler
	authMiddleware      *middleware.AuthMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:         params.AuthHandler,
		authMiddleware:      params.AuthMiddleware,
		rateLimitMiddleware: params.RateLimitMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	authGroup := e.Group("/auth")
	{
		// Session exchange routes, limited per client IP
		authGroup.POST("/signup", r.authHandler.SignUp, r.rateLimitMiddleware.Limit)
		authGroup.POST("/signin", r.authHandler.SignIn, r.rateLimitMiddleware.Limit)
		authGroup.POST("/refresh", r.authHandler.Refresh, r.rateLimitMiddleware.Limit)

		// Routes that require a verified access token
		authGroup.POST("/signout", r.authHandler.SignOut, r.authMiddleware.Authenticate)
		authGroup.GET("/user", r.authHandler.CurrentUser, r.authMiddleware.Authenticate)
	}
}
