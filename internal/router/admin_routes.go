package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-participation/internal/handler"
	"github.com/iliyamo/event-participation/internal/middleware"
	"github.com/iliyamo/event-participation/internal/model"
)

// RegisterAdmin registers moderation and catalogue endpoints.  All routes
// require the ADMIN role.
func RegisterAdmin(e *echo.Echo, ev *handler.EventHandler, cat *handler.CategoryHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		limit,
	)
	g.GET("/events", ev.AdminSearch)
	g.PATCH("/events/:eventId", ev.AdminUpdate)
	g.POST("/categories", cat.Create)
	g.PATCH("/categories/:id", cat.Rename)
}
