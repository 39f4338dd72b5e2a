package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/coach-scheduler/internal/cache"
	"github.com/iliyamo/coach-scheduler/internal/config"
	"github.com/iliyamo/coach-scheduler/internal/handler"
	"github.com/iliyamo/coach-scheduler/internal/middleware"
)

// Deps carries everything the route table needs.  Redis and the cache are
// optional; a nil client disables rate limiting and caching.
type Deps struct {
	JWTSecret string
	DB        handler.Pinger
	Redis     *redis.Client
	Cache     *cache.AvailabilityCache
	RateLimit config.RateLimitConfig
	CacheCfg  config.CacheConfig
	Log       *zap.Logger
	Slots     *handler.SlotHandler
	Sessions  *handler.SessionHandler
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d.DB)
	RegisterScheduling(e, d)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}
