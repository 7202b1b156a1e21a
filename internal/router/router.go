// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/tricket/internal/config"
	"github.com/iliyamo/tricket/internal/handler"
	"github.com/iliyamo/tricket/internal/middleware"
	"github.com/iliyamo/tricket/internal/utils"
)

// RegisterRoutes registers the unauthenticated endpoints: health check,
// productions, tags and schedule.
func RegisterRoutes(e *echo.Echo, p *handler.PublicHandler, s *handler.ScheduleHandler) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/v1")
	g.GET("/productions", p.ListProductions)
	g.GET("/productions/by-title/:slug", p.GetProductionByTitle)
	g.GET("/productions/:id", p.GetProduction)
	g.GET("/tags", p.ListTags)
	g.GET("/tags/:id", p.GetTag)

	g.GET("/schedule", s.GetSchedule)
	g.GET("/schedule/dates", s.GetDates)
	g.GET("/schedule/venues", s.GetVenues)
}

// RegisterAdmin registers the admin endpoints. Token issuance is rate
// limited per client; cache clearing requires an ADMIN token.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/admin")
	g.POST("/token", a.IssueToken, middleware.NewFixedWindow(rl, rdb))
	g.POST("/cache/clear", a.ClearCache, middleware.JWTAuth(jwtSecret), middleware.RequireRole(utils.RoleAdmin))
}
