package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Geocoding + service area
	GeocodeBaseURL    string
	GeocodeAPIKey     string
	BaseLatitude      float64
	BaseLongitude     float64
	ServiceRadiusMi   float64
	ExtendedRadiusMi  float64
	AverageSpeedMPH   float64
	GeocodeHTTPTimout time.Duration

	// Weather
	WeatherBaseURL       string
	WeatherAPIKey        string
	RainChanceThreshold  float64
	WeatherLookaheadDays int

	// Booking
	SessionTTL            time.Duration
	PhoneDebounce         time.Duration
	PastAppointmentsLimit int
	SlotIntervalMinutes   int
	BookingOpenHour       int
	BookingCloseHour      int

	// Loyalty
	PointsEarningRate    float64
	MinRedemptionCents   int
	ReferralRewardPoints int

	// Notifications
	UseMemoryQueue    bool
	WorkerCount       int
	NotifyQueueURL    string
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string
	OwnerAlertEmail   string

	// Gallery
	GalleryBucket string

	// Admin
	AdminJWTSecret string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		GeocodeBaseURL:    getEnv("GEOCODE_BASE_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
		GeocodeAPIKey:     getEnv("GEOCODE_API_KEY", ""),
		BaseLatitude:      getEnvAsFloat("BASE_LATITUDE", 35.0456),
		BaseLongitude:     getEnvAsFloat("BASE_LONGITUDE", -85.3097),
		ServiceRadiusMi:   getEnvAsFloat("SERVICE_RADIUS_MILES", 20),
		ExtendedRadiusMi:  getEnvAsFloat("EXTENDED_RADIUS_MILES", 35),
		AverageSpeedMPH:   getEnvAsFloat("AVERAGE_SPEED_MPH", 30),
		GeocodeHTTPTimout: getEnvAsDuration("GEOCODE_HTTP_TIMEOUT", 10*time.Second),

		WeatherBaseURL:       getEnv("WEATHER_BASE_URL", "https://api.weatherapi.com/v1"),
		WeatherAPIKey:        getEnv("WEATHER_API_KEY", ""),
		RainChanceThreshold:  getEnvAsFloat("RAIN_CHANCE_THRESHOLD", 15),
		WeatherLookaheadDays: getEnvAsInt("WEATHER_LOOKAHEAD_DAYS", 3),

		SessionTTL:            getEnvAsDuration("BOOKING_SESSION_TTL", 2*time.Hour),
		PhoneDebounce:         getEnvAsDuration("PHONE_DEBOUNCE", 500*time.Millisecond),
		PastAppointmentsLimit: getEnvAsInt("PAST_APPOINTMENTS_LIMIT", 5),
		SlotIntervalMinutes:   getEnvAsInt("SLOT_INTERVAL_MINUTES", 90),
		BookingOpenHour:       getEnvAsInt("BOOKING_OPEN_HOUR", 8),
		BookingCloseHour:      getEnvAsInt("BOOKING_CLOSE_HOUR", 18),

		PointsEarningRate:    getEnvAsFloat("POINTS_EARNING_RATE", 1),
		MinRedemptionCents:   getEnvAsInt("MIN_REDEMPTION_CENTS", 5000),
		ReferralRewardPoints: getEnvAsInt("REFERRAL_REWARD_POINTS", 50),

		UseMemoryQueue:    getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:       getEnvAsInt("WORKER_COUNT", 2),
		NotifyQueueURL:    getEnv("NOTIFY_QUEUE_URL", ""),
		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Clean Machine Auto Detail"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Clean Machine Auto Detail"),
		OwnerAlertEmail:   getEnv("OWNER_ALERT_EMAIL", ""),

		GalleryBucket: getEnv("GALLERY_BUCKET", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
