// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flashtaxi/internal/http/handlers"
	"flashtaxi/internal/http/middleware"
	"flashtaxi/internal/infra"
	"flashtaxi/internal/modules/driver"
	"flashtaxi/internal/modules/ride"
	"flashtaxi/internal/modules/rider"
	"flashtaxi/internal/modules/support"
	"flashtaxi/internal/realtime"
)

const (
	roleRider  = "rider"
	roleDriver = "driver"
)

type RouterDeps struct {
	Verifier infra.TokenVerifier
	Rides    *ride.Service
	Drivers  *driver.Service
	Riders   *rider.Service
	Geo      handlers.GeoLookup
	Support  *support.Service
	Hub      *realtime.Hub
	Log      *slog.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(d.Log),
		middleware.Logging(d.Log),
		middleware.Metrics(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.Auth(d.Verifier)
	api := r.Group("/api")

	authHandler := handlers.NewAuthHandler(d.Riders)
	api.POST("/auth/send-otp", authHandler.SendOTP)
	api.POST("/auth/verify-otp", authHandler.VerifyOTP)
	me := api.Group("/auth", auth, middleware.RequireRole(roleRider))
	me.GET("/me", authHandler.Me)
	me.PUT("/profile", authHandler.UpdateProfile)

	rideHandler := handlers.NewRideHandler(d.Rides)
	rides := api.Group("/rides", auth, middleware.RequireRole(roleRider))
	rides.POST("/request", rideHandler.Request)
	rides.POST("/estimate", rideHandler.Estimate)
	rides.GET("/history", rideHandler.History)
	rides.GET("/:rideId", rideHandler.Get)
	rides.POST("/:rideId/cancel", rideHandler.Cancel)

	driverHandler := handlers.NewDriverHandler(d.Rides, d.Drivers)
	api.GET("/drivers/:driverId", auth, driverHandler.Profile)
	driverOnly := api.Group("/driver", auth, middleware.RequireRole(roleDriver))
	driverOnly.POST("/rides/:rideId/accept", driverHandler.Accept)
	driverOnly.POST("/rides/:rideId/arrive", driverHandler.Arrive)
	driverOnly.POST("/rides/:rideId/start", driverHandler.Start)
	driverOnly.POST("/rides/:rideId/complete", driverHandler.Complete)
	driverOnly.PUT("/location", driverHandler.UpdateLocation)

	geoHandler := handlers.NewGeoHandler(d.Geo)
	geo := api.Group("/geo", auth)
	geo.GET("/geocode", geoHandler.Geocode)
	geo.GET("/reverse", geoHandler.Reverse)
	geo.GET("/suggest", geoHandler.Suggest)

	supportHandler := handlers.NewSupportHandler(d.Support)
	api.POST("/support/chat", auth, middleware.RequireRole(roleRider), supportHandler.Chat)

	realtimeHandler := handlers.NewRealtimeHandler(d.Hub)
	r.GET("/ws", auth, realtimeHandler.Connect)

	return r
}
