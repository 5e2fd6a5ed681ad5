// Package router registers the HTTP routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-participation/internal/handler"
	"github.com/iliyamo/event-participation/internal/middleware"
	"github.com/iliyamo/event-participation/internal/model"
)

// RegisterRoutes registers routes that need neither authentication nor
// rate limiting.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers /v1/auth and GET /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
}

// RegisterPublic registers unauthenticated browse endpoints.  Only
// published events are visible here.  Event reads carry live capacity
// (confirmedRequests, onlyAvailable) and bypass the response cache;
// category reads go through it.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, cat *handler.CategoryHandler, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", limit)
	g.GET("/events", ev.PublicSearch)
	g.GET("/events/:id", ev.PublicGet)
	g.GET("/categories", cat.List, cache)
	g.GET("/categories/:id", cat.Get, cache)
}
