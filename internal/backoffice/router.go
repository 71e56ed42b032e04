package backoffice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orbitfall/tradeempire/internal/backoffice/handler"
	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
	"github.com/orbitfall/tradeempire/internal/repository"
	"github.com/orbitfall/tradeempire/internal/service"
	"github.com/orbitfall/tradeempire/internal/ws"
)

// BackofficeDeps bundles every dependency needed for the admin router.
type BackofficeDeps struct {
	AuthSvc   *service.AuthService
	GameSvc   *service.GameService
	ScoreSvc  *service.ScoreService
	PilotRepo *repository.PilotRepository
	SaveRepo  *repository.SaveRepository
	Hub       *ws.Hub
	Cfg       *config.Config
}

// SetupBackofficeRouter creates the admin Gin engine on port 8081.
func SetupBackofficeRouter(deps BackofficeDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(ipWhitelistMiddleware(deps.Cfg.Server.BackofficeAllowedIPs))

	dashH := handler.NewDashboardHandler(deps.GameSvc, deps.PilotRepo, deps.SaveRepo, deps.Hub, deps.Cfg)
	pilotH := handler.NewPilotAdminHandler(deps.PilotRepo, deps.SaveRepo, deps.Cfg)
	scoreH := handler.NewScoreAdminHandler(deps.ScoreSvc, deps.Hub, deps.Cfg)

	jwtMW := adminJWTMiddleware(deps.AuthSvc)

	admin := r.Group("/admin")
	admin.Use(jwtMW)
	{
		admin.GET("/dashboard", dashH.Dashboard)

		// Pilots
		p := admin.Group("/pilots")
		{
			p.GET("", pilotH.List)
			p.GET("/:id", pilotH.Detail)
			p.POST("/:id/suspend", pilotH.Suspend)
			p.POST("/:id/activate", pilotH.Activate)
			p.POST("/:id/role", pilotH.SetRole)
			p.DELETE("/:id/save", pilotH.DeleteSave)
		}

		// Leaderboard
		s := admin.Group("/scores")
		{
			s.GET("", scoreH.List)
			s.DELETE("/:id", scoreH.Delete)
		}

		// Broadcast
		admin.POST("/announce", scoreH.Announce)
	}

	return r
}

// ── IP whitelist middleware ───────────────────────────────────────────────────

// ipWhitelistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all.
func ipWhitelistMiddleware(allowedIPs string) gin.HandlerFunc {
	if allowedIPs == "" {
		return func(c *gin.Context) { c.Next() } // dev mode: no restriction
	}

	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !allowed[clientIP] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied: your IP is not whitelisted",
			})
			return
		}
		c.Next()
	}
}

// ── Admin JWT middleware ──────────────────────────────────────────────────────

// adminJWTMiddleware validates a JWT and requires the caller to have a
// backoffice-capable role (admin, readonly).
func adminJWTMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := authSvc.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil || claims.TokenType != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		backofficeRoles := map[string]bool{
			string(domain.RoleAdmin):    true,
			string(domain.RoleReadOnly): true,
		}
		if !backofficeRoles[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}

		// Mutating verbs need the full admin role.
		if c.Request.Method != http.MethodGet && !domain.PilotRole(claims.Role).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "read-only role"})
			return
		}

		c.Set("pilotID", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}
