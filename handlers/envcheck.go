package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voicedesk/config"
)

// EnvCheck reports which external integrations are configured, without
// leaking the secrets themselves. Handy when wiring up a new deployment.
func EnvCheck(c *gin.Context) {
	cfg := config.AppConfig
	c.JSON(http.StatusOK, gin.H{
		"gemini":         cfg.GeminiAPIKey != "",
		"elevenlabs":     cfg.ElevenAPIKey != "" && cfg.ElevenVoiceID != "",
		"bookingWebhook": cfg.BookingWebhookURL != "",
		"calendar":       cfg.CalendarBaseURL != "",
		"redis":          cfg.RedisAddr != "",
		"baseUrl":        cfg.BaseURL,
		"timezone":       cfg.BusinessTimezone,
	})
}
