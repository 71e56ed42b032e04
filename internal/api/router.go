package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orbitfall/tradeempire/internal/api/handler"
	"github.com/orbitfall/tradeempire/internal/api/middleware"
	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/repository"
	"github.com/orbitfall/tradeempire/internal/service"
	"github.com/orbitfall/tradeempire/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc     *service.AuthService
	GameSvc     *service.GameService
	ShippingSvc *service.ShippingService
	ScoreSvc    *service.ScoreService
	PilotRepo   *repository.PilotRepository
	Hub         *ws.Hub
	Cfg         *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(deps.AuthSvc, deps.PilotRepo)
	gameH := handler.NewGameHandler(deps.GameSvc, deps.PilotRepo)
	bankH := handler.NewBankHandler(deps.GameSvc)
	contractH := handler.NewContractHandler(deps.GameSvc)
	shippingH := handler.NewShippingHandler(deps.GameSvc, deps.ShippingSvc)
	travelH := handler.NewTravelHandler(deps.GameSvc)
	scoreH := handler.NewScoreHandler(deps.ScoreSvc)

	// ── JWT middleware (shared) ───────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware(10) // 10 req/s per IP for auth endpoints
	gameRL := middleware.RateLimitMiddleware(30) // 30 req/s per IP for game commands

	api := r.Group("/api")
	{
		// ── Auth (public, strict rate limit) ─────────────────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/register", authH.Register)
			auth.POST("/login", authH.Login)
			auth.POST("/refresh", authH.Refresh)
		}

		// ── Leaderboard (public) ─────────────────────────────────────────────
		api.GET("/scores", scoreH.Top)

		// ── Authenticated routes ──────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(jwtMW)
		{
			// Profile
			authed.GET("/me", authH.Me)

			// Game session + station commands
			game := authed.Group("/game")
			game.Use(gameRL)
			{
				game.POST("/new", gameH.NewGame)
				game.POST("/load", gameH.LoadGame)
				game.POST("/save", gameH.SaveGame)
				game.GET("/state", gameH.GetState)
				game.POST("/retire", gameH.Retire)

				game.POST("/buy", gameH.Buy)
				game.POST("/sell", gameH.Sell)
				game.POST("/repair", gameH.Repair)
				game.POST("/equipment", gameH.BuyEquipment)
				game.POST("/fabricate", gameH.Fabricate)
				game.POST("/warrant/clear", gameH.ClearWarrant)
				game.POST("/cargo/expand", gameH.ExpandCargo)
			}

			// Banking
			bank := authed.Group("/bank")
			bank.Use(gameRL)
			{
				bank.POST("/loans/draw", bankH.DrawLoan)
				bank.POST("/loans/:id/repay", bankH.RepayLoan)
				bank.POST("/deposits", bankH.OpenDeposit)
			}

			// Contracts
			contracts := authed.Group("/contracts")
			contracts.Use(gameRL)
			{
				contracts.POST("/:id/accept", contractH.Accept)
				contracts.POST("/:id/settle", contractH.Settle)
			}

			// Shipping + warehouses
			shipping := authed.Group("/shipping")
			shipping.Use(gameRL)
			{
				shipping.POST("/quote", shippingH.Quote)
				shipping.POST("/send", shippingH.Send)
				shipping.POST("/claim", shippingH.Claim)
				shipping.POST("/sell", shippingH.Sell)
				shipping.POST("/forward", shippingH.Forward)
			}

			// Travel
			travel := authed.Group("/travel")
			travel.Use(gameRL)
			{
				travel.POST("/depart", travelH.Depart)
				travel.POST("/resolve", travelH.Resolve)
				travel.POST("/wait", travelH.Wait)
			}
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In DEBUG mode all origins are allowed; in production only configured origins.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			// Production: allow only the game site (and www.)
			allowed := map[string]bool{
				"https://orbitfall.io":     true,
				"https://www.orbitfall.io": true,
			}
			if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
