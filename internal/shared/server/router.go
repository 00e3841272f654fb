package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"warranty-copilot/internal/intents"
	"warranty-copilot/internal/monitor"
	"warranty-copilot/internal/qna"
	"warranty-copilot/internal/services/health"
	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/shared/metrics"
	"warranty-copilot/internal/shared/server/middleware"
	"warranty-copilot/internal/teams"
	"warranty-copilot/internal/waitsec"
)

// Rate limit groups.
const (
	GroupDefault = "DEFAULT"
	GroupQnA     = "QNA"
	GroupOps     = "OPS"
)

// RouterDeps carries the handlers registered on the engine. Nil handlers are skipped.
type RouterDeps struct {
	Config  config.Config
	Limiter middleware.Limiter

	Health  *health.Service
	QnA     *qna.Handler
	Intents *intents.Handler
	Monitor *monitor.Handler
	Teams   *teams.Handler
	WaitSec *waitsec.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(time.Now)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        rateLimitRules(deps.Config),
			DefaultGroup: GroupDefault,
			GroupFor:     groupFor,
			Limiter:      limiter,
		}),
	)

	if deps.Health != nil {
		deps.Health.RegisterRoutes(r)
	}
	r.GET("/metrics", metrics.Handler())

	if deps.QnA != nil {
		deps.QnA.RegisterRoutes(r)
	}
	if deps.Intents != nil {
		deps.Intents.RegisterRoutes(r)
	}
	if deps.Monitor != nil {
		deps.Monitor.RegisterRoutes(r)
	}
	if deps.Teams != nil {
		deps.Teams.RegisterRoutes(r)
	}
	if deps.WaitSec != nil {
		deps.WaitSec.RegisterRoutes(r)
	}

	return r
}

// rateLimitRules gives the completion routes the configured budget and
// everything else twice that. OPS routes are not limited.
func rateLimitRules(cfg config.Config) map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		GroupQnA:     {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
		GroupDefault: {Rate: cfg.RateLimitRPS * 2, Burst: cfg.RateLimitBurst * 2},
	}
}

func groupFor(c *gin.Context) string {
	switch c.FullPath() {
	case "/dynamic_qna", "/clarify_issue":
		return GroupQnA
	case "/", "/healthz", "/metrics":
		return GroupOps
	default:
		return GroupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
