package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// NATS (detection events in, dispatch outcomes out)
	// Default: nats://localhost:4222 (works with Docker Compose setup)
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	NatsDrainTimeout   time.Duration // For graceful shutdown

	DetectionsSubject string
	OutcomesSubject   string
	DetectionsQueue   string

	// Twilio SMS provider
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	DefaultAlertPhone string
	TwilioAPIBase     string
	ProviderTimeout   time.Duration

	// Alerting policy
	AlertCooldown time.Duration
	// Minimum confidence a detection event must carry before the
	// gateway is invoked. Applies to the NATS source only; the HTTP
	// entry point performs no gating.
	MinConfidence float64
	CooldownSweep time.Duration

	// Optional shared cooldown store. Empty = in-memory.
	RedisAddr     string
	RedisPassword string

	// Swagger Configuration
	SwaggerHost string
	SwaggerPort int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "alert-gateway-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy (lightweight web log viewer)
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// NATS (configured for Docker Compose setup)
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		NatsDrainTimeout:   getEnvDuration("NATS_DRAIN_TIMEOUT", 5*time.Second),

		DetectionsSubject: getEnv("DETECTIONS_SUBJECT", "detections"),
		OutcomesSubject:   getEnv("OUTCOMES_SUBJECT", "alerts.outcomes"),
		DetectionsQueue:   getEnv("DETECTIONS_QUEUE", "alert-gateway"),

		// Twilio SMS provider
		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		DefaultAlertPhone: getEnv("DEFAULT_ALERT_PHONE", ""),
		TwilioAPIBase:     getEnv("TWILIO_API_BASE", "https://api.twilio.com/2010-04-01"),
		ProviderTimeout:   getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),

		// Alerting policy
		AlertCooldown: getEnvDuration("ALERT_COOLDOWN", 60*time.Second),
		MinConfidence: getEnvFloat("MIN_CONFIDENCE", 0.5),
		CooldownSweep: getEnvDuration("COOLDOWN_SWEEP_INTERVAL", 5*time.Minute),

		// Optional shared cooldown store
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		// Swagger Configuration
		SwaggerHost: getEnv("SWAGGER_HOST", "localhost"),
		SwaggerPort: getEnvInt("SWAGGER_PORT", 8000),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// MissingProviderKeys returns the names of required Twilio settings that
// are absent. Values are never included, only key names.
func (c *Config) MissingProviderKeys() []string {
	var missing []string
	if c.TwilioAccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.TwilioAuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.TwilioPhoneNumber == "" {
		missing = append(missing, "TWILIO_PHONE_NUMBER")
	}
	if c.DefaultAlertPhone == "" {
		missing = append(missing, "DEFAULT_ALERT_PHONE")
	}
	return missing
}

// Validate checks the configuration once at startup. All missing keys
// are reported together so the operator can fix them in one pass.
func (c *Config) Validate() error {
	if missing := c.MissingProviderKeys(); len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	if c.AlertCooldown <= 0 {
		return fmt.Errorf("ALERT_COOLDOWN must be positive, got %s", c.AlertCooldown)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("MIN_CONFIDENCE must be in [0,1], got %v", c.MinConfidence)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	// Check for Docker-specific environment indicators
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	// Check for .dockerenv file
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	// If running in Docker, use service name; otherwise use localhost
	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}
