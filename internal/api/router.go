package api

import (
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"timetable-ical-backend/config"
	"timetable-ical-backend/internal/builder"
	"timetable-ical-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, services map[string]*builder.Service) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(cfg, services)

	// Rate limit with a small burst; feed pollers are low-frequency.
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), 5, cfg.Server.RequestIPHeader)

	// Generated feeds are cached so pollers do not trigger a full
	// upstream round trip each time.
	cacheStore := cache.New(cfg.Server.CacheTTL, 2*cfg.Server.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.Server.CacheTTL)

	r.GET("/healthz", handler.Health)

	feeds := r.Group("/")
	feeds.Use(rateLimiter)
	{
		// GET /ical/{account_id}
		feeds.GET("/ical/:id", caching, handler.GetICal)

		// GET /json/{account_id}
		feeds.GET("/json/:id", caching, handler.GetClean)
	}

	return r
}
