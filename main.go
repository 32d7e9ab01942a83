package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"voicedesk/config"
	"voicedesk/cron"
	"voicedesk/handlers"
	"voicedesk/middleware"
	"voicedesk/routes"
	"voicedesk/services/booking"
	"voicedesk/services/calendar"
	"voicedesk/services/dialog"
	"voicedesk/services/intelligence"
	"voicedesk/services/schedule"
	"voicedesk/services/voice"
	"voicedesk/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig
	loc := config.BusinessLocation()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Conversation context: Redis when reachable, in-memory otherwise.
	var ctxStore intelligence.ContextStore
	if utils.InitCache() {
		ctxStore = intelligence.NewRedisContextStore(utils.GetCacheClient(), 30*time.Minute)
	} else {
		ctxStore = intelligence.NewMemoryContextStore()
	}

	var model intelligence.Generator = intelligence.DisabledGenerator{}
	if cfg.GeminiAPIKey != "" {
		gem, err := intelligence.NewGeminiClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logger.Sugar().Warnf("main: Gemini unavailable, conversational fallback disabled: %v", err)
		} else {
			model = gem
		}
	}
	convo := intelligence.NewConversationService(model, ctxStore, cfg.SalonName, cfg.SalonCity)

	var cal calendar.Client = calendar.NullClient{}
	if cfg.CalendarBaseURL != "" {
		cal = calendar.NewHTTPClient(cfg.CalendarBaseURL)
	}

	hours := &schedule.Hours{
		Loc:           loc,
		OpenHour:      cfg.OpenHour,
		CloseHour:     cfg.CloseHour,
		ClosedWeekday: time.Weekday(cfg.ClosedWeekday),
		StepMinutes:   cfg.SlotStepMinutes,
		MaxSpoken:     cfg.MaxSpokenSlots,
		Cal:           cal,
	}

	sessions := dialog.NewSessionStore()
	turns := dialog.NewTurnStore()
	engine := &dialog.Engine{
		Resolver:   schedule.NewResolver(loc, cfg.AssumePMHourMin, cfg.AssumePMHourMax),
		Hours:      hours,
		Sessions:   sessions,
		AI:         convo,
		Submitter:  booking.NewWebhookSubmitter(cfg.BookingWebhookURL),
		Loc:        loc,
		SalonName:  cfg.SalonName,
		SalonPhone: cfg.SalonPhone,
	}

	voiceSvc := voice.NewService(voice.NewTTSClient(cfg.ElevenAPIKey, cfg.ElevenVoiceID), voice.NewAudioStore())
	if cfg.ElevenAPIKey != "" {
		go voiceSvc.Warm(context.Background())
	}

	voiceHandler := handlers.NewVoiceHandler(engine, turns, voiceSvc, cfg.BaseURL)
	routes.RegisterRoutes(router, voiceHandler)

	stopSweeper := make(chan struct{})
	cron.StartSweeper(sessions, turns, stopSweeper)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	close(stopSweeper)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
