package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"session-scheduling-backend/config"
	"session-scheduling-backend/internal/mw"
	"session-scheduling-backend/internal/scheduling"
	"session-scheduling-backend/internal/store"
)

// limiterIdle is how long a quiet client's rate limiter is kept.
const limiterIdle = 10 * time.Minute

// NewRouter creates and configures a new Gin router.
func NewRouter(engine *scheduling.Engine, s store.Store, webpushOptions *webpush.Options, cfg config.ServerConfig, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(log.Named("http")), cors.New(corsConfig(cfg.CORSOrigins)))

	handler := NewHandler(engine, s, webpushOptions, log.Named("api"))

	rateLimiter := mw.RateLimiter(mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, limiterIdle))

	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter, mw.PurgeOnWrite(cacheStore))
	{
		org := api.Group("/organizations/:org_id")
		org.POST("/consultants/:consultant_id/slots", handler.CreateSlot)
		org.GET("/consultants/:consultant_id/slots", handler.ListSlots)
		org.PATCH("/consultants/:consultant_id/slots/:slot_id", handler.UpdateSlot)
		org.DELETE("/consultants/:consultant_id/slots/:slot_id", handler.DeleteSlot)
		org.GET("/consultants/:consultant_id/analytics", caching, handler.ListAnalytics)
		org.POST("/bookings", handler.CreateBooking)

		api.GET("/consultants/:consultant_id/conflicts", handler.CheckConflict)
		api.GET("/consultants/:consultant_id/bookings", handler.ListConsultantBookings)
		api.GET("/beneficiaries/:beneficiary_id/bookings", handler.ListBeneficiaryBookings)

		api.GET("/bookings/:booking_id", handler.GetBooking)
		api.POST("/bookings/:booking_id/confirm", handler.ConfirmBooking)
		api.POST("/bookings/:booking_id/complete", handler.CompleteSession)
		api.POST("/bookings/:booking_id/cancel", handler.CancelBooking)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "X-Cache"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
