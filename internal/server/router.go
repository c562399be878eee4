// Package server assembles the HTTP API from the domain handlers.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"labbook/internal/domain/auth"
	"labbook/internal/domain/booking"
	"labbook/internal/middleware"
	"labbook/internal/pkg/jwt"
	"labbook/internal/realtime"
)

type Deps struct {
	Tokens   *jwt.Service
	Auth     *auth.Handler
	Bookings *booking.Handler
	Realtime *realtime.Handler
	Log      *zap.Logger

	AllowedOrigins []string
	AuthRatePerMin int
	AuthRateBurst  int
}

// NewRouter wires middleware and routes:
//
//	GET  /health
//	POST /api/v1/auth/otp/request, /api/v1/auth/otp/verify  (rate limited)
//	GET  /api/v1/users/me                                   (JWT)
//	GET|POST /api/v1/bookings, DELETE /api/v1/bookings/:id  (JWT)
//	GET  /ws/bookings?token=&month=
func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorLogger(log), middleware.CORS(d.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		limiter := middleware.NewIPRateLimiter(d.AuthRatePerMin, d.AuthRateBurst, log)
		d.Auth.RegisterPublicRoutes(v1, limiter.Middleware())

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(d.Tokens))
		{
			d.Auth.RegisterProtectedRoutes(protected)
			d.Bookings.RegisterRoutes(protected)
		}
	}

	if d.Realtime != nil {
		d.Realtime.RegisterRoutes(r)
	}
	return r
}
