package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"voicedesk/handlers"
)

// RegisterVoiceRoutes wires the telephony webhook endpoints.
func RegisterVoiceRoutes(r *gin.Engine, vh *handlers.VoiceHandler) {
	voiceGroup := r.Group("/voice")
	{
		voiceGroup.POST("/incoming", vh.Incoming)
		voiceGroup.POST("/turn", vh.Turn)
		voiceGroup.POST("/turn/result", vh.TurnResult)
		voiceGroup.GET("/turn/result", vh.TurnResult)
	}
	r.GET("/audio/:id", vh.Audio)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Voicedesk is listening"})
	})
	r.GET("/env-check", handlers.EnvCheck)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, vh *handlers.VoiceHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterVoiceRoutes(r, vh)
	RegisterHealthRoute(r)
}
