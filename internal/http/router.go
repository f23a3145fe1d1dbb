// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crewtrack/internal/http/handlers"
	"crewtrack/internal/http/middleware"
	"crewtrack/internal/infra"
)

type RouterDeps struct {
	Presence handlers.PresenceSource
	CheckIn  handlers.CheckInService
	Booking  handlers.BookingService
	Talent   handlers.TalentService
	Jobs     handlers.JobLister
	// Notifications serves the websocket stream; nil disables the route.
	Notifications http.Handler
	Verifier      infra.TokenVerifier
	CORSOrigins   []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging(), middleware.Metrics())

	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.Auth(deps.Verifier))
	employer := middleware.RequireRole(middleware.RoleEmployer)

	presenceHandler := handlers.NewPresenceHandler(deps.Presence)
	api.GET("/presence", presenceHandler.List)
	api.POST("/presence/refresh", presenceHandler.Refresh)

	checkInHandler := handlers.NewCheckInHandler(deps.CheckIn, deps.Presence)
	api.POST("/checkins", employer, checkInHandler.Create)
	api.POST("/checkins/:locationId/checkout", employer, checkInHandler.CheckOut)

	bookingHandler := handlers.NewBookingHandler(deps.Booking)
	api.GET("/electricians/:id/availability", bookingHandler.Availability)
	api.GET("/electricians/:id/bookings", bookingHandler.Upcoming)
	api.POST("/bookings/estimate", bookingHandler.Estimate)
	api.POST("/bookings", employer, bookingHandler.Create)

	talentHandler := handlers.NewTalentHandler(deps.Talent, deps.Presence, deps.Jobs)
	api.GET("/talent", talentHandler.Search)
	api.GET("/map", talentHandler.Map)

	if deps.Notifications != nil {
		api.GET("/notifications/ws", gin.WrapH(deps.Notifications))
	}
	return r
}
