package handlers

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"telecasino-dice/internal/middleware"
	"telecasino-dice/internal/services"
)

type RouterConfig struct {
	Dice      *DiceHandler
	WebSocket *WebSocketHandler
	// JWT enables bearer auth on /api when set.
	JWT *services.JWTService

	Throttle   services.Throttle
	RateLimit  int
	RateWindow time.Duration

	PublicDir string
	Log       *slog.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(cfg.Log))

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", Health)
	router.GET("/api/test/ping", Ping)
	router.Static("/videos", cfg.PublicDir)

	api := router.Group("/api")
	if cfg.JWT != nil {
		api.Use(middleware.AuthMiddleware(cfg.JWT))

		session := NewSessionHandler(cfg.JWT)
		api.GET("/session", session.GetCurrentSession)
		api.POST("/session/refresh", session.Refresh)
	}

	api.GET("/ws", cfg.WebSocket.HandleWebSocket)

	dice := api.Group("/dice")
	{
		dice.GET("/odds", cfg.Dice.GetOdds)
		dice.POST("/play",
			middleware.RateLimitMiddleware(cfg.Throttle, cfg.RateLimit, cfg.RateWindow, cfg.Log),
			cfg.Dice.PlayDice,
		)
	}

	return router
}
