package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coach-scheduler/internal/middleware"
)

// RegisterScheduling registers the authenticated /v1 scheduling API.
// Every route requires a valid JWT and is rate limited per user and route.
func RegisterScheduling(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.RoleLearner, middleware.RoleCoach),
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
	)

	// ---- Availability ----
	var slotCache echo.MiddlewareFunc = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if d.CacheCfg.Enabled {
		slotCache = middleware.CoachAvailabilityCache(d.Cache, d.CacheCfg.MaxBodyBytes)
	}
	g.GET("/coaches/:coach_id/slots", d.Slots.ListAvailable, slotCache)

	// ---- Bookings ----
	g.POST("/bookings", d.Sessions.Book, middleware.RequireRole(middleware.RoleLearner))

	// ---- Sessions ----
	g.GET("/my-sessions", d.Sessions.MySessions)
	g.GET("/sessions/:id", d.Sessions.Get)
	g.POST("/sessions/:id/status", d.Sessions.SetStatus)
	g.POST("/sessions/:id/complete", d.Sessions.Complete)

	// ---- Reschedules ----
	g.POST("/sessions/:id/reschedule", d.Sessions.RequestReschedule)
	g.GET("/sessions/:id/reschedule-requests", d.Sessions.ListReschedules)
	g.POST("/reschedule-requests/:id/respond", d.Sessions.RespondReschedule)
}
