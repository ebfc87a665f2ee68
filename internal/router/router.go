package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"studybuddy/backend/internal/handler"
	"studybuddy/backend/internal/middleware"
	"studybuddy/backend/internal/service"
)

type Handlers struct {
	Auth  *handler.AuthHandler
	Deck  *handler.DeckHandler
	Timer *handler.TimerHandler
}

func New(
	authService *service.AuthService,
	handlers Handlers,
	corsOrigins []string,
	logger *slog.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/login", handlers.Auth.Login)

	deck := api.Group("/deck")
	deck.Use(middleware.Auth(authService))
	deck.GET("", handlers.Deck.GetState)
	deck.GET("/cards", handlers.Deck.ListCards)
	deck.POST("/cards", handlers.Deck.AddCard)
	deck.GET("/current", handlers.Deck.Current)
	deck.POST("/next", handlers.Deck.Next)
	deck.POST("/answer", handlers.Deck.ToggleAnswer)
	deck.POST("/session", handlers.Deck.NewSession)
	deck.GET("/shuffled", handlers.Deck.Shuffled)
	deck.GET("/events", handlers.Deck.Events)

	timer := api.Group("/timer")
	timer.Use(middleware.Auth(authService))
	timer.GET("", handlers.Timer.GetState)
	timer.POST("/set", handlers.Timer.Set)
	timer.POST("/start", handlers.Timer.Start)
	timer.POST("/pause", handlers.Timer.Pause)
	timer.POST("/resume", handlers.Timer.Resume)
	timer.POST("/reset", handlers.Timer.Reset)
	timer.GET("/history", handlers.Timer.GetHistory)
	timer.GET("/events", handlers.Timer.Events)

	return engine
}
