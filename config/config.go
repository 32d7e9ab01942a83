package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	BaseURL           string `mapstructure:"BASE_URL"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Salon identity, spoken to callers.
	SalonName  string `mapstructure:"SALON_NAME"`
	SalonCity  string `mapstructure:"SALON_CITY"`
	SalonPhone string `mapstructure:"SALON_PHONE"`

	// Business-hours policy. All wall-clock reasoning happens in this timezone.
	BusinessTimezone string `mapstructure:"BUSINESS_TIMEZONE"`
	OpenHour         int    `mapstructure:"OPEN_HOUR"`
	CloseHour        int    `mapstructure:"CLOSE_HOUR"`
	ClosedWeekday    int    `mapstructure:"CLOSED_WEEKDAY"` // time.Weekday value, Sunday = 0
	SlotStepMinutes  int    `mapstructure:"SLOT_STEP_MINUTES"`
	MaxSpokenSlots   int    `mapstructure:"MAX_SPOKEN_SLOTS"`

	// A bare hour inside [AssumePMHourMin, AssumePMHourMax] with no meridiem
	// is read as PM. Salon-specific heuristic; tune or disable per deployment.
	AssumePMHourMin int `mapstructure:"ASSUME_PM_HOUR_MIN"`
	AssumePMHourMax int `mapstructure:"ASSUME_PM_HOUR_MAX"`

	// Collaborator endpoints and keys.
	GeminiAPIKey      string `mapstructure:"GEMINI_API_KEY"`
	ElevenAPIKey      string `mapstructure:"ELEVEN_API_KEY"`
	ElevenVoiceID     string `mapstructure:"ELEVEN_VOICE_ID"`
	BookingWebhookURL string `mapstructure:"BOOKING_WEBHOOK_URL"`
	CalendarBaseURL   string `mapstructure:"CALENDAR_BASE_URL"`

	// Redis configuration (conversation context cache).
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("SALON_NAME", "the salon")
	viper.SetDefault("SALON_CITY", "the city")
	viper.SetDefault("SALON_PHONE", "")
	viper.SetDefault("BUSINESS_TIMEZONE", "America/Toronto")
	viper.SetDefault("OPEN_HOUR", 9)
	viper.SetDefault("CLOSE_HOUR", 19)
	viper.SetDefault("CLOSED_WEEKDAY", 0)
	viper.SetDefault("SLOT_STEP_MINUTES", 30)
	viper.SetDefault("MAX_SPOKEN_SLOTS", 4)
	viper.SetDefault("ASSUME_PM_HOUR_MIN", 1)
	viper.SetDefault("ASSUME_PM_HOUR_MAX", 7)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("ELEVEN_API_KEY", "")
	viper.SetDefault("ELEVEN_VOICE_ID", "")
	viper.SetDefault("BOOKING_WEBHOOK_URL", "")
	viper.SetDefault("CALENDAR_BASE_URL", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// BusinessLocation resolves the configured business timezone.
// Falls back to UTC if the zone name is unknown so the server still boots.
func BusinessLocation() *time.Location {
	loc, err := time.LoadLocation(AppConfig.BusinessTimezone)
	if err != nil {
		log.Printf("Unknown BUSINESS_TIMEZONE %q, falling back to UTC", AppConfig.BusinessTimezone)
		return time.UTC
	}
	return loc
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
