package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campaign-backend/internal/campaign"
	"campaign-backend/internal/services/health"
	"campaign-backend/internal/shared/config"
	"campaign-backend/internal/shared/metrics"
	"campaign-backend/internal/shared/server/middleware"
	"campaign-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	CampaignHandler *campaign.Handler
	// Limiter is shared across requests; nil builds a fresh one.
	Limiter *middleware.RateLimiter
}

const (
	groupDefault = "DEFAULT"
	groupStatic  = "STATIC"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.IsDevLike() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: groupDefault,
		GroupFor:     staticGroup,
		Limiter:      deps.Limiter,
		Rules: map[string]middleware.RateLimitRule{
			groupDefault: {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
			groupStatic:  {Rate: cfg.RateLimitRPS * 10, Burst: cfg.RateLimitBurst * 10},
		},
	}))

	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"status": "healthy"})
			return
		}
		respond.JSON(c, http.StatusOK, deps.Health.Status())
	})
	api.GET("/metrics", metrics.Handler())
	if deps.CampaignHandler != nil {
		deps.CampaignHandler.RegisterRoutes(api)
	}

	return r
}

// staticGroup gives image downloads their own, larger bucket.
func staticGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodGet {
		return groupDefault
	}
	switch c.FullPath() {
	case "/api/v1/output/:file", "/api/v1/download/:filename":
		return groupStatic
	}
	return groupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":3001"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
