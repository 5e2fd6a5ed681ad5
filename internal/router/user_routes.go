package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-participation/internal/handler"
	"github.com/iliyamo/event-participation/internal/middleware"
	"github.com/iliyamo/event-participation/internal/model"
)

// RegisterUser registers the caller-scoped endpoints under /v1/users/me.
// Every authenticated user may organise events and request participation;
// the caller's id always comes from the token.
func RegisterUser(e *echo.Echo, ev *handler.EventHandler, req *handler.RequestHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/users/me",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
		limit,
	)

	// ---- Own events ----
	g.POST("/events", ev.Create)
	g.GET("/events", ev.ListMine)
	g.GET("/events/:eventId", ev.GetMine)
	g.PATCH("/events/:eventId", ev.UpdateMine)

	// ---- Requests to own events ----
	g.GET("/events/:eventId/requests", req.ListForEvent)
	g.PATCH("/events/:eventId/requests", req.Decide)

	// ---- Own requests ----
	g.POST("/requests", req.Create)
	g.GET("/requests", req.ListMine)
	g.PATCH("/requests/:requestId/cancel", req.Cancel)
}
